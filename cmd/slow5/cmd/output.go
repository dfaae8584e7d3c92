package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// addFormatFlag registers --format on c
func addFormatFlag(c *cobra.Command) {
	c.Flags().StringP("format", "f", formatTable, "Output format: table, json, yaml")
}

// output writes v in the format chosen by --format. table renders the
// table form.
func output(cmd *cobra.Command, v interface{}, table func(w *tabwriter.Writer)) error {
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		return outputJSON(out, v)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case formatTable, "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func outputJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
