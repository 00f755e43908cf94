package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"beamer/internal/api"
	"beamer/internal/ipc"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Inspect and maintain the asset cache",
	}
	cmd.AddCommand(
		newAssetsListCommand(ctx),
		newAssetsRemoveCommand(ctx),
		newAssetsClearCommand(ctx),
	)
	return cmd
}

func newAssetsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached assets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AssetList()
				if err != nil {
					return fmt.Errorf("list assets: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp.Assets)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderAssetTable(resp.Assets))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit assets as JSON")
	return cmd
}

func newAssetsRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Drop one asset from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.AssetRemove(id); err != nil {
					return fmt.Errorf("remove asset %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed asset %s\n", id)
				return nil
			})
		},
	}
	return cmd
}

func newAssetsClearCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the asset cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.AssetClear(); err != nil {
					return fmt.Errorf("clear asset cache: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "asset cache cleared")
				return nil
			})
		},
	}
	return cmd
}

func renderAssetTable(assets []api.AssetView) string {
	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, []string{
			asset.ID,
			formatByteSize(asset.SizeBytes),
			asset.ContentType,
			asset.FetchedAt,
			asset.Path,
		})
	}
	headers := []string{"ID", "SIZE", "TYPE", "FETCHED", "PATH"}
	return entityTable(headers, rows, 1)
}

func formatByteSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	for _, suffix := range suffixes {
		value /= unit
		if value < unit || suffix == suffixes[len(suffixes)-1] {
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%d B", size)
}
