package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/pkg/query"
	"github.com/ssargent/slow5/pkg/slow5"
)

// idsCmd represents the ids command
var idsCmd = &cobra.Command{
	Use:   "ids <file>",
	Short: "List read ids in file order",
	Long: `List read ids in file order, optionally only those whose auxiliary
fields match every --where condition.

Examples:
  slow5 ids reads.blow5
  slow5 ids reads.blow5 --where 'median_before>=200' --where end_reason=signal_positive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exprs, _ := cmd.Flags().GetStringArray("where")
		where, err := query.ParseFieldQueries(exprs)
		if err != nil {
			return err
		}

		r, err := slow5.Open(args[0], readOptions(cmd)...)
		if err != nil {
			return err
		}
		defer r.Close()

		out := cmd.OutOrStdout()
		if len(where) > 0 {
			ids, err := query.NewSimpleQueryEngine(r, nil).ReadIDs(cmd.Context(), where...)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		it := r.ReadIDs()
		for it.Next() {
			fmt.Fprintln(out, it.ReadID())
		}
		return it.Err()
	},
}

func init() {
	rootCmd.AddCommand(idsCmd)
	idsCmd.Flags().Bool("persist-index", false, "Build or reuse the on-disk read id index")
	idsCmd.Flags().StringArray("where", nil, "Keep reads whose field matches, e.g. median_before>=200 (repeatable)")
}
