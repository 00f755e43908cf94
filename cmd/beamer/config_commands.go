package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"beamer/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the beamer configuration file",
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigShowCommand(ctx),
		newConfigValidateCommand(),
	)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample config file",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(path)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("resolve default config path: %w", err)
				}
				target = defaultPath
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("expand config path: %w", err)
			}
			if !overwrite {
				if _, err := os.Stat(expanded); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", expanded)
				}
			}
			if err := config.CreateSample(expanded); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample config to %s\n", expanded)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "destination for the sample config (defaults to the standard location)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolvedPath, exists, err := config.Load(strings.TrimSpace(path))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "config at %s is valid\n", resolvedPath)
			} else {
				fmt.Fprintln(out, "no config file found; built-in defaults are valid")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "config file to validate (defaults to the standard location)")
	return cmd
}
