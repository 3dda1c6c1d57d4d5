package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "depsweep",
		Short:         "Find declared build dependencies that no source file uses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	dbPath     string
	verbose    bool
)

// errUnresolved makes the process exit non-zero after the report has been printed.
var errUnresolved = errors.New("unresolved dependencies found")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errUnresolved) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "depsweep.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the symbol cache and scan history database (SQLite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
}
