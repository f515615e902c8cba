package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arraylab/cloudarray/internal/array"
)

func newDescribeCmd(storeOpts *map[string]string) *cobra.Command {
	return &cobra.Command{
		Use:     "describe <url>",
		Short:   "Print an array's metadata as JSON",
		Example: `  cloudarray describe file:///data/temps`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, args[0], *storeOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := array.Open(ctx, store)
			if err != nil {
				return err
			}

			doc, err := json.MarshalIndent(a.Metadata(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		},
	}
}
