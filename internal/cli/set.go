package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arraylab/cloudarray/internal/array"
	"github.com/arraylab/cloudarray/internal/tensor"
)

func newSetCmd(storeOpts *map[string]string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <url> <key> <values...>",
		Short: "Write values into a selection of an array",
		Long: `Write values into the elements a key selects. Values are given in
row-major order and must exactly fill the selection; only the chunks
the selection overlaps are rewritten.`,
		Example: `  # fill row 0
  cloudarray set file:///data/temps "0,:" 1 2 3 4 5 6

  # single element
  cloudarray set file:///data/temps "2,3" 42`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sels, err := ParseKey(args[1])
			if err != nil {
				return err
			}
			vals, err := parseValues(args[2:])
			if err != nil {
				return err
			}

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

			shape, err := a.KeyShape(sels...)
			if err != nil {
				return err
			}
			src, err := tensor.FromFloat64s(a.DType(), shape, vals)
			if err != nil {
				return err
			}
			if err := a.SetSlice(ctx, src, sels...); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d values to %s\n", len(vals), args[0])
			return nil
		},
	}
}
