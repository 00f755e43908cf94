package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"beamer/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and engine status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("fetch status: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderStatus(status, colorize) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit status as JSON")
	return cmd
}

func renderStatus(status *ipc.StatusResponse, colorize bool) []string {
	var lines []string
	lines = append(lines, renderSectionHeader("Daemon", colorize)...)

	runningTone := toneError
	runningMessage := "stopped"
	if status.Running {
		runningTone = toneOK
		runningMessage = fmt.Sprintf("pid %d", status.PID)
	}
	lines = append(lines,
		renderStatusLine("Running", runningTone, runningMessage, colorize),
		renderStatusLine("Socket", toneInfo, status.SocketPath, colorize),
		renderStatusLine("Cache", toneInfo, status.CachePath, colorize),
	)

	relayTone := toneInfo
	relayMessage := "disabled"
	if status.RelayEnabled {
		relayTone = toneOK
		relayMessage = status.RelayURL
	}
	lines = append(lines, renderStatusLine("Relay", relayTone, relayMessage, colorize))

	if status.AssetCacheDir != "" {
		lines = append(lines, renderStatusLine("Asset cache", toneInfo, status.AssetCacheDir, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Engine", colorize)...)
	engine := status.Engine
	counts := fmt.Sprintf("%d contexts, %d surfaces, %d mappings", engine.Contexts, engine.Surfaces, engine.Mappings)
	lines = append(lines, renderStatusLine("Entities", toneInfo, counts, colorize))

	errorTotal := engine.ContextErrors + engine.SurfaceErrors + engine.MappingErrors
	if errorTotal > 0 {
		var details []string
		if engine.FirstContextErr != "" {
			details = append(details, engine.FirstContextErr)
		}
		if engine.FirstSurfaceErr != "" {
			details = append(details, engine.FirstSurfaceErr)
		}
		if engine.FirstMappingErr != "" {
			details = append(details, engine.FirstMappingErr)
		}
		message := fmt.Sprintf("%d", errorTotal)
		if len(details) > 0 {
			message = fmt.Sprintf("%d (%s)", errorTotal, strings.Join(details, "; "))
		}
		lines = append(lines, renderStatusLine("Errors", toneWarn, message, colorize))
	} else {
		lines = append(lines, renderStatusLine("Errors", toneOK, "none", colorize))
	}

	if engine.PendingDownloads > 0 {
		pending := fmt.Sprintf("%d download(s) in flight", engine.PendingDownloads)
		lines = append(lines, renderStatusLine("Assets", toneWarn, pending, colorize))
	}
	if engine.Dirty {
		lines = append(lines, renderStatusLine("Cache sync", toneWarn, "write pending", colorize))
	}

	return lines
}
