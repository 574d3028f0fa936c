package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <result.json>...",
	Short: "Check analysis results against the result schema",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if err := schema.ValidateJSON(raw); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %s: %v\n", path, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d results failed validation", failed, len(args))
		}
		return nil
	},
}
