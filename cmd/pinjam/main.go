package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinjam-app/pinjam/internal/build"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pinjam",
		Short: "School lending catalog",
		Long:  "Pinjam: a catalog where students borrow school items and staff approve the loans.",
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.String())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
