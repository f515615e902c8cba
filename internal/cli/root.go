// Package cli provides the cloudarray command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arraylab/cloudarray/internal/backend"
	"github.com/arraylab/cloudarray/internal/registration"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var storeOpts map[string]string

	cmd := &cobra.Command{
		Use:   "cloudarray",
		Short: "Manage chunked n-dimensional arrays on pluggable stores",
		Long: `cloudarray creates, inspects and edits chunked n-dimensional arrays
stored behind a URL: mem://, file://, sqlite://, http(s):// or s3://.

Array data is split into fixed-shape chunks so reads and writes touch
only the chunks a selection overlaps.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	cmd.PersistentFlags().StringToStringVarP(&storeOpts, "opt", "o", nil,
		"backend option as key=value (e.g. -o endpoint=s3.local -o timeout=10s)")

	cmd.AddCommand(newCreateCmd(&storeOpts))
	cmd.AddCommand(newDescribeCmd(&storeOpts))
	cmd.AddCommand(newGetCmd(&storeOpts))
	cmd.AddCommand(newSetCmd(&storeOpts))
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// openStore registers the built-in backends and opens the store the
// URL names. Callers own the returned backend.
func openStore(ctx context.Context, rawURL string, opts map[string]string) (backend.Backend, error) {
	registration.RegisterBuiltins()
	return backend.Open(ctx, rawURL, backend.Config(opts))
}
