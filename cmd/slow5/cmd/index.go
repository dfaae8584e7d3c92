package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/pkg/slow5"
	"github.com/ssargent/slow5/pkg/storage"
)

type indexResult struct {
	File    string `json:"file" yaml:"file"`
	Index   string `json:"index" yaml:"index"`
	Reads   int    `json:"reads" yaml:"reads"`
	Skipped int    `json:"skipped" yaml:"skipped"`
}

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Build the on-disk read id index",
	Long: `Build the persistent read id index next to a file. Later commands given
--persist-index (or index.persist in the config) reuse it until the file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := buildIndex(args[0])
		if err != nil {
			return err
		}
		return output(cmd, res, func(w *tabwriter.Writer) {
			fmt.Fprintf(w, "File:\t%s\n", res.File)
			fmt.Fprintf(w, "Index:\t%s\n", res.Index)
			fmt.Fprintf(w, "Reads:\t%d\n", res.Reads)
			fmt.Fprintf(w, "Skipped:\t%d\n", res.Skipped)
		})
	},
}

func buildIndex(path string) (*indexResult, error) {
	r, err := slow5.Open(path, slow5.WithPersistentIndex())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	stats, err := r.IndexStats()
	if err != nil {
		return nil, err
	}
	return &indexResult{
		File:    path,
		Index:   storage.IndexPath(path),
		Reads:   stats.TotalReads,
		Skipped: stats.Skipped,
	}, nil
}

func init() {
	rootCmd.AddCommand(indexCmd)
	addFormatFlag(indexCmd)
}
