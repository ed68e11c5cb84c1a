// Command pgwiretap decodes a stream of Postgres wire protocol messages
// from a file or stdin and prints one line per message. It exists as a
// thin exercise of internal/ingest and internal/wire, not as a
// production proxy.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/divyam234/pgwire/internal/ingest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pgwiretap [file]",
		Short: "Decode a Postgres wire protocol message stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			in := os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			puller := ingest.NewPuller(in, logger)
			ctx := context.Background()
			for {
				msg, err := puller.Next(ctx)
				if err != nil {
					break
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s len=%d\n", msg.Type.String(), len(msg.Payload))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
