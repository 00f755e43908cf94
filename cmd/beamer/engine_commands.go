package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"beamer/internal/ipc"
)

func newCoverageCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage <on|off>",
		Short: "Toggle the coverage-debug preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("expected \"on\" or \"off\", got %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.Coverage(enabled); err != nil {
					return fmt.Errorf("toggle coverage preview: %w", err)
				}
				state := "disabled"
				if enabled {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "coverage preview %s\n", state)
				return nil
			})
		},
	}
	return cmd
}

func newReplayCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Feed a recorded relay event file into the engine",
		Long:  "Replay a JSON array of relay event frames as if they arrived over the websocket. Useful for seeding a daemon from a capture.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve replay file: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.Replay(path); err != nil {
					return fmt.Errorf("replay %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "replayed %s\n", path)
				return nil
			})
		},
	}
	return cmd
}
