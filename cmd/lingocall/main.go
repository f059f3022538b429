package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var migrationsURL string

var rootCmd = &cobra.Command{
	Use:           "lingocall",
	Short:         "Practice a language by phoning contacts on Telegram",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsURL, "migrations", "file://migrations", "PostgreSQL migrations source")
	rootCmd.AddCommand(serveCmd, dueCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
