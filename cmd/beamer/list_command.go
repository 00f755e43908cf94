package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"beamer/internal/api"
	"beamer/internal/ipc"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [kind]",
		Short: "List entities held by the engine",
		Long:  "List render contexts, mapping surfaces, and content mappings. Pass a kind (context, surface, mapping) to restrict the output.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if len(args) == 1 {
				kind = normalizeKind(args[0])
				if kind == "" {
					return fmt.Errorf("unknown entity kind %q (expected context, surface, or mapping)", args[0])
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.List()
				if err != nil {
					return fmt.Errorf("list entities: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), filteredSnapshot(resp.Snapshot, kind))
				}
				out := cmd.OutOrStdout()
				shown := 0
				if kind == "" || kind == "context" {
					fmt.Fprintln(out, renderContextTable(resp.Snapshot.Contexts))
					shown++
				}
				if kind == "" || kind == "surface" {
					if shown > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintln(out, renderSurfaceTable(resp.Snapshot.Surfaces))
					shown++
				}
				if kind == "" || kind == "mapping" {
					if shown > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintln(out, renderMappingTable(resp.Snapshot.Mappings))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit entities as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show one entity as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := normalizeKind(args[0])
			if kind == "" {
				return fmt.Errorf("unknown entity kind %q (expected context, surface, or mapping)", args[0])
			}
			id := args[1]
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.List()
				if err != nil {
					return fmt.Errorf("list entities: %w", err)
				}
				entity, ok := findEntity(resp.Snapshot, kind, id)
				if !ok {
					return fmt.Errorf("%s %q not found", kind, id)
				}
				return writeJSON(cmd.OutOrStdout(), entity)
			})
		},
	}
	return cmd
}

func normalizeKind(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "context", "contexts", "render-context":
		return "context"
	case "surface", "surfaces", "mapping-surface":
		return "surface"
	case "mapping", "mappings", "content-mapping":
		return "mapping"
	default:
		return ""
	}
}

func filteredSnapshot(snapshot api.Snapshot, kind string) api.Snapshot {
	switch kind {
	case "context":
		return api.Snapshot{Contexts: snapshot.Contexts}
	case "surface":
		return api.Snapshot{Surfaces: snapshot.Surfaces}
	case "mapping":
		return api.Snapshot{Mappings: snapshot.Mappings}
	default:
		return snapshot
	}
}

func findEntity(snapshot api.Snapshot, kind, id string) (any, bool) {
	switch kind {
	case "context":
		for _, c := range snapshot.Contexts {
			if c.ID == id {
				return c, true
			}
		}
	case "surface":
		for _, s := range snapshot.Surfaces {
			if s.ID == id {
				return s, true
			}
		}
	case "mapping":
		for _, m := range snapshot.Mappings {
			if m.ID == id {
				return m, true
			}
		}
	}
	return nil, false
}

func renderContextTable(contexts []api.RenderContextView) string {
	rows := make([][]string, 0, len(contexts))
	for _, c := range contexts {
		source := c.SourceType
		switch c.SourceType {
		case "camera":
			if c.CameraID != "" {
				source = "camera " + c.CameraID
			}
		case "asset":
			if c.AssetID != "" {
				source = "asset " + c.AssetID
			}
		}
		rows = append(rows, []string{
			c.ID,
			c.Name,
			source,
			fmt.Sprintf("%dx%d", c.Width, c.Height),
			yesNo(c.Enabled),
			yesNo(c.HasTexture),
			c.LastError,
		})
	}
	headers := []string{"ID", "NAME", "SOURCE", "RESOLUTION", "ENABLED", "TEXTURE", "ERROR"}
	return entityTable(headers, rows, 3)
}

func renderSurfaceTable(surfaces []api.MappingSurfaceView) string {
	rows := make([][]string, 0, len(surfaces))
	for _, s := range surfaces {
		slots := make([]string, 0, len(s.MaterialSlots))
		for _, slot := range s.MaterialSlots {
			slots = append(slots, strconv.Itoa(slot))
		}
		rows = append(rows, []string{
			s.ID,
			s.Name,
			s.TargetID,
			strconv.Itoa(s.UVChannel),
			strings.Join(slots, ","),
			yesNo(s.Enabled),
			yesNo(s.Resolved),
			s.LastError,
		})
	}
	headers := []string{"ID", "NAME", "TARGET", "UV", "SLOTS", "ENABLED", "RESOLVED", "ERROR"}
	return entityTable(headers, rows, 3)
}

func renderMappingTable(mappings []api.ContentMappingView) string {
	rows := make([][]string, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, []string{
			m.ID,
			m.Name,
			m.Type,
			m.ContextID,
			strconv.Itoa(len(m.SurfaceIDs)),
			fmt.Sprintf("%.2f", m.Opacity),
			yesNo(m.Enabled),
			m.LastError,
		})
	}
	headers := []string{"ID", "NAME", "TYPE", "CONTEXT", "SURFACES", "OPACITY", "ENABLED", "ERROR"}
	return entityTable(headers, rows, 4, 5)
}
