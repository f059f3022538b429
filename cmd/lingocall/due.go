package main

import (
	"fmt"
	"io"
	"time"

	"lingocall/internal/config"
	"lingocall/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dueCmd = &cobra.Command{
	Use:   "due <language>",
	Short: "List words due for review",
	Long: `List the words of a language whose review time has come, earliest first.

Reads the durable store, so words heard during a running call appear once
they have been written behind.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf := time.Now()
		if v, _ := cmd.Flags().GetString("as-of"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return fmt.Errorf("invalid --as-of: %w", err)
			}
			asOf = t
		}

		cfg, err := config.LoadStore()
		if err != nil {
			return err
		}

		st, err := openStores(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer st.Close()

		words, err := service.NewScheduler(st.vocab, nil, zap.NewNop()).DueWords(args[0], asOf)
		if err != nil {
			return err
		}

		printDue(cmd.OutOrStdout(), args[0], words)
		return nil
	},
}

func init() {
	dueCmd.Flags().String("as-of", "", "review time to check against (RFC 3339, default now)")
}

func printDue(w io.Writer, language string, words []string) {
	if len(words) == 0 {
		fmt.Fprintf(w, "nothing due for %s\n", language)
		return
	}
	for _, word := range words {
		fmt.Fprintln(w, word)
	}
}
