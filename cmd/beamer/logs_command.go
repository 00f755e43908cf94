package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"beamer/internal/ipc"
)

const followWaitMillis = 1000

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				req := ipc.LogTailRequest{Offset: -1, Limit: lines}
				for {
					resp, err := client.LogTail(req)
					if err != nil {
						return fmt.Errorf("tail logs: %w", err)
					}
					for _, line := range resp.Lines {
						fmt.Fprintln(out, line)
					}
					if !follow {
						return nil
					}
					req = ipc.LogTailRequest{
						Offset:     resp.Offset,
						Follow:     true,
						WaitMillis: followWaitMillis,
					}
					select {
					case <-cmd.Context().Done():
						return nil
					default:
					}
				}
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep streaming new lines")
	return cmd
}
