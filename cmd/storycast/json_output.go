package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON emits v as indented JSON on the command's stdout. Used by the
// --json flag on queue listing and show commands.
func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
