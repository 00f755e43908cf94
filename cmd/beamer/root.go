package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var socketFlag string
	var configFlag string
	ctx := newCommandContext(&socketFlag, &configFlag)

	root := &cobra.Command{
		Use:           "beamer",
		Short:         "Control the beamer content-mapping daemon",
		Long:          "beamer inspects and drives a running beamerd instance over its unix socket.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	root.PersistentFlags().StringVar(&socketFlag, "socket", "", "path to the daemon socket (defaults to the configured path)")
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to the config file")

	root.AddCommand(
		newStatusCommand(ctx),
		newListCommand(ctx),
		newShowCommand(ctx),
		newCreateCommand(ctx),
		newUpdateCommand(ctx),
		newDeleteCommand(ctx),
		newActionCommand(ctx),
		newCoverageCommand(ctx),
		newReplayCommand(ctx),
		newLogsCommand(ctx),
		newAssetsCommand(ctx),
		newConfigCommand(ctx),
	)

	return root
}
