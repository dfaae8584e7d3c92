package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// viewCmd represents the view command
var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Print a file as SLOW5 text",
	Long: `Print the header and every read of a SLOW5 or BLOW5 file as SLOW5 text.

Example:
  slow5 view reads.blow5 | less -S`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewFile(cmd.OutOrStdout(), args[0])
	},
}

// viewFile renders in as SLOW5 text through a temporary file
func viewFile(out io.Writer, in string) error {
	dir, err := os.MkdirTemp("", "slow5-view")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	text := filepath.Join(dir, "view.slow5")
	if _, err := convertFile(in, text, nil, nil); err != nil {
		return err
	}
	f, err := os.Open(text)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(out, f)
	return err
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
