package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arraylab/cloudarray/internal/array"
)

// sliceResult is the JSON shape of a get command's output.
type sliceResult struct {
	Shape  []int     `json:"shape"`
	DType  string    `json:"dtype"`
	Values []float64 `json:"values"`
}

func newGetCmd(storeOpts *map[string]string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <url> [key]",
		Short: "Read a selection of an array and print it as JSON",
		Long: `Read the elements a key selects and print them as a flat JSON array
in row-major order, together with the selection's shape.

The key is comma-separated per dimension: an index ("7", "-2"), a
half-open range ("1:3", "4:", ":2") or ":" for everything. Omitted
trailing dimensions select everything. With no key the whole array is
read.`,
		Example: `  cloudarray get file:///data/temps
  cloudarray get file:///data/temps "1:3,:"
  cloudarray get "sqlite:///data/arrays.db?namespace=temps" "0,4"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sels []array.Sel
			if len(args) == 2 {
				var err error
				sels, err = ParseKey(args[1])
				if err != nil {
					return err
				}
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

			t, err := a.Slice(ctx, sels...)
			if err != nil {
				return err
			}

			doc, err := json.Marshal(sliceResult{
				Shape:  t.Shape(),
				DType:  t.DType().String(),
				Values: t.Float64s(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		},
	}
}
