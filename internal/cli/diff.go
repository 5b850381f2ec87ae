package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crmexport/internal/core"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "diff <left.csv> <right.csv>",
		Short:       "Compare two exports record by record",
		Long:        "Compare two export files and report the first record and column where they disagree.",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, n, err := core.CompareFiles(args[0], args[1])
			if err != nil {
				return err
			}
			if d != nil {
				fmt.Fprintln(cmd.OutOrStdout(), d)
				return ErrDifferent
			}
			fmt.Fprintf(cmd.OutOrStdout(), "identical: %s records\n", humanize.Comma(int64(n)))
			return nil
		},
	}
}
