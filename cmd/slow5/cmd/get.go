package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/pkg/api"
	"github.com/ssargent/slow5/pkg/slow5"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <file> <read_id>...",
	Short: "Print reads by id",
	Long: `Print one JSON object per requested read.

Examples:
  slow5 get reads.blow5 0d624d4b-671f-40b8-9798-84f2ccc4d7fc
  slow5 get reads.blow5 r1 r2 --signal picoamps`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		signal, _ := cmd.Flags().GetString("signal")
		switch signal {
		case "raw", "picoamps", "none":
		default:
			return fmt.Errorf("--signal must be one of raw, picoamps, none")
		}

		r, err := slow5.Open(args[0], readOptions(cmd)...)
		if err != nil {
			return err
		}
		defer r.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		missing := 0
		for _, id := range args[1:] {
			rec, err := r.Get(id)
			if errors.Is(err, slow5.ErrReadIDNotFound) {
				cmd.PrintErrf("%v\n", err)
				missing++
				continue
			}
			if err != nil {
				return err
			}
			if err := enc.Encode(api.NewReadResponse(rec, signal)); err != nil {
				return err
			}
		}
		if missing > 0 {
			return fmt.Errorf("%d of %d read ids not found", missing, len(args)-1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().String("signal", "raw", "Signal to include: raw, picoamps, none")
	getCmd.Flags().Bool("persist-index", false, "Build or reuse the on-disk read id index")
}
