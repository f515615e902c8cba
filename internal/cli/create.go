package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arraylab/cloudarray/internal/array"
	"github.com/arraylab/cloudarray/internal/dtype"
)

func newCreateCmd(storeOpts *map[string]string) *cobra.Command {
	var shapeStr string
	var chunksStr string
	var dtypeStr string

	cmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Create an empty array at a store URL",
		Example: `  # 4x6 float64 array in 2x3 chunks, stored on disk
  cloudarray create file:///data/temps --shape 4,6 --chunks 2,3

  # int32 array in a SQLite database
  cloudarray create "sqlite:///data/arrays.db?namespace=temps" \
    --shape 100,100 --chunks 10,10 --dtype int32`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := parseDims(shapeStr)
			if err != nil {
				return fmt.Errorf("--shape: %w", err)
			}
			chunks, err := parseDims(chunksStr)
			if err != nil {
				return fmt.Errorf("--chunks: %w", err)
			}
			dt, err := dtype.Parse(dtypeStr)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, args[0], *storeOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := array.Create(ctx, store, dt, shape, chunks)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s array %v in %d chunks at %s\n",
				a.DType(), a.Shape(), a.NumChunks(), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&shapeStr, "shape", "", "array shape, e.g. 4,6")
	cmd.Flags().StringVar(&chunksStr, "chunks", "", "chunk shape, e.g. 2,3")
	cmd.Flags().StringVar(&dtypeStr, "dtype", "float64", "element type (int8..int64, uint8..uint64, float32, float64)")
	_ = cmd.MarkFlagRequired("shape")
	_ = cmd.MarkFlagRequired("chunks")

	return cmd
}
