package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the analysis result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(schema.Raw())
		return err
	},
}
