package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Header is the column layout shared by the CSV and table writers.
var Header = []string{"project", "dependency_type", "group", "artifact"}

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, csv or json)", s)
	}
}

// Write renders the rows of r in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, r.Rows)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatTable, "":
		return WriteTable(w, r.Rows)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func record(row Row) []string {
	return []string{row.Project, string(row.DependencyType), row.GroupID, row.ArtifactID}
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func WriteTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No unused dependencies found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tTYPE\tGROUP\tARTIFACT")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Project, row.DependencyType, row.GroupID, row.ArtifactID)
	}
	return tw.Flush()
}

// WriteWarnings prints one warning per line.
func WriteWarnings(w io.Writer, warnings []Warning) error {
	for _, warn := range warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warn); err != nil {
			return err
		}
	}
	return nil
}
