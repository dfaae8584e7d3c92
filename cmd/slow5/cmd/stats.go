package cmd

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/pkg/slow5"
)

type readGroupCount struct {
	ReadGroup uint32 `json:"read_group" yaml:"read_group"`
	Reads     int    `json:"reads" yaml:"reads"`
}

type statsResult struct {
	File         string           `json:"file" yaml:"file"`
	Reads        int              `json:"reads" yaml:"reads"`
	Samples      uint64           `json:"samples" yaml:"samples"`
	ReadGroups   []readGroupCount `json:"read_groups" yaml:"read_groups"`
	MinPicoamps  float64          `json:"min_picoamps" yaml:"min_picoamps"`
	MaxPicoamps  float64          `json:"max_picoamps" yaml:"max_picoamps"`
	DecodeErrors int              `json:"decode_errors" yaml:"decode_errors"`
}

func newStatsResult(path string, s slow5.Summary) *statsResult {
	res := &statsResult{
		File:         path,
		Reads:        s.Records,
		Samples:      s.Samples,
		ReadGroups:   []readGroupCount{},
		MinPicoamps:  s.MinPicoamps,
		MaxPicoamps:  s.MaxPicoamps,
		DecodeErrors: s.DecodeErrors,
	}
	for g, n := range s.ReadGroups {
		res.ReadGroups = append(res.ReadGroups, readGroupCount{ReadGroup: g, Reads: n})
	}
	slices.SortFunc(res.ReadGroups, func(a, b readGroupCount) int {
		return int(a.ReadGroup) - int(b.ReadGroup)
	})
	return res
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Summarize the reads of a file",
	Long: `Count reads and samples per file and read group and report the picoamp
range. Reads are decoded in parallel.

Example:
  slow5 stats reads.blow5 --workers 8 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workers := configFrom(cmd).Stats.Workers
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
		}

		summary, err := slow5.Summarize(cmd.Context(), args[0], workers, readOptions(cmd)...)
		if err != nil {
			return err
		}
		res := newStatsResult(args[0], summary)
		return output(cmd, res, func(w *tabwriter.Writer) {
			fmt.Fprintf(w, "File:\t%s\n", res.File)
			fmt.Fprintf(w, "Reads:\t%d\n", res.Reads)
			fmt.Fprintf(w, "Samples:\t%d\n", res.Samples)
			fmt.Fprintf(w, "Picoamps:\t%.3f .. %.3f\n", res.MinPicoamps, res.MaxPicoamps)
			fmt.Fprintf(w, "Decode errors:\t%d\n", res.DecodeErrors)
			for _, g := range res.ReadGroups {
				fmt.Fprintf(w, "Read group %d:\t%d reads\n", g.ReadGroup, g.Reads)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addFormatFlag(statsCmd)
	statsCmd.Flags().IntP("workers", "w", 0, "Parallel decoders (default stats.workers from the config)")
	statsCmd.Flags().Bool("persist-index", false, "Build or reuse the on-disk read id index")
}
