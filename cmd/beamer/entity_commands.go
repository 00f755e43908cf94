package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"beamer/internal/ipc"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var data string
	var dataFile string

	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create an entity from a JSON payload",
		Long:  "Create a render context, mapping surface, or content mapping. The payload must carry an \"id\" field; unknown kinds are rejected.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := normalizeKind(args[0])
			if kind == "" {
				return fmt.Errorf("unknown entity kind %q (expected context, surface, or mapping)", args[0])
			}
			payload, err := loadPayload(data, dataFile)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Create(kind, payload)
				if err != nil {
					return fmt.Errorf("create %s: %w", kind, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s\n", kind, resp.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "entity payload as a JSON object")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "read the entity payload from a JSON file")
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var data string
	var dataFile string

	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Merge a partial JSON payload into an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := normalizeKind(args[0])
			if kind == "" {
				return fmt.Errorf("unknown entity kind %q (expected context, surface, or mapping)", args[0])
			}
			id := args[1]
			payload, err := loadPayload(data, dataFile)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Update(kind, id, payload)
				if err != nil {
					return fmt.Errorf("update %s: %w", kind, err)
				}
				if !resp.Updated {
					return fmt.Errorf("%s %q not found", kind, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s %s\n", kind, id)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "partial payload as a JSON object")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "read the partial payload from a JSON file")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := normalizeKind(args[0])
			if kind == "" {
				return fmt.Errorf("unknown entity kind %q (expected context, surface, or mapping)", args[0])
			}
			id := args[1]
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Delete(kind, id)
				if err != nil {
					return fmt.Errorf("delete %s: %w", kind, err)
				}
				if !resp.Deleted {
					return fmt.Errorf("%s %q not found", kind, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", kind, id)
				return nil
			})
		},
	}
	return cmd
}

func newActionCommand(ctx *commandContext) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "action <target> <name>",
		Short: "Invoke an action on an entity target",
		Long:  "Invoke a registered action, for example: beamer action /content-mapping/mapping/m1 setOpacity -d '{\"opacity\":0.5}'",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			name := args[1]
			payload, err := parsePayload(data)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Action(target, name, payload)
				if err != nil {
					return fmt.Errorf("invoke action: %w", err)
				}
				if !resp.Handled {
					return fmt.Errorf("action %q was not handled by target %s", name, target)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s on %s\n", name, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "action payload as a JSON object")
	return cmd
}

func loadPayload(data, dataFile string) (map[string]any, error) {
	if data != "" && dataFile != "" {
		return nil, fmt.Errorf("use either --data or --data-file, not both")
	}
	if dataFile != "" {
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		return parsePayload(string(raw))
	}
	return parsePayload(data)
}

func parsePayload(data string) (map[string]any, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	parsed, err := oj.ParseString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	payload, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return payload, nil
}
