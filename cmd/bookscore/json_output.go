package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v, "  ")
}

// writeJSONLine writes v as a single compact line. Watch loops use it so
// each refresh is one record on the stream.
func writeJSONLine(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v, "")
}

func encodeJSON(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}
