package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"depsweep/internal/report"
	"depsweep/internal/storage"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored scans, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		scans, err := store.ListScans(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		return writeHistory(cmd.OutOrStdout(), scans)
	},
}

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Print the report of a stored scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(showFormat)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		_, r, err := store.LoadScan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := report.Write(cmd.OutOrStdout(), r, format); err != nil {
			return err
		}
		if format != report.FormatJSON {
			return report.WriteWarnings(cmd.ErrOrStderr(), r.Warnings)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of scans to list (0 for all)")
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "table", "Output format: table, csv or json")
}

func openStore() (*storage.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStore(cfg.Resolver.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func writeHistory(w io.Writer, scans []storage.Scan) error {
	if len(scans) == 0 {
		_, err := fmt.Fprintln(w, "No scans recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tROOT\tMODULES\tUNUSED\tUNRESOLVED\tUNPARSABLE\tDURATION")
	for _, s := range scans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			s.ID, s.StartedAt.Local().Format(time.DateTime), s.Root,
			s.Modules, s.Unused, s.Unresolved, s.Unparsable, s.Duration.Round(time.Millisecond))
	}
	return tw.Flush()
}
