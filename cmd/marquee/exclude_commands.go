package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/config"
)

func newExcludeCommand(ctx *commandContext) *cobra.Command {
	excludeCmd := &cobra.Command{
		Use:   "exclude",
		Short: "Manage permanently ignored projects",
	}
	excludeCmd.AddCommand(newExcludeAddCommand(ctx))
	excludeCmd.AddCommand(newExcludeListCommand(ctx))
	return excludeCmd
}

func newExcludeAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project-id>...",
		Short: "Add project IDs to the exclusion list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := exclusionFilePath(cfg)
			existing, err := readExclusionLines(path)
			if err != nil {
				return err
			}
			known := make(map[string]struct{}, len(existing))
			for _, id := range existing {
				known[id] = struct{}{}
			}

			added := 0
			for _, arg := range args {
				id := strings.TrimSpace(arg)
				if id == "" {
					continue
				}
				if _, dup := known[id]; dup {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already excluded\n", id)
					continue
				}
				existing = append(existing, id)
				known[id] = struct{}{}
				added++
			}

			if added == 0 {
				return nil
			}
			if err := writeExclusionLines(path, existing); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d project(s) to %s\n", added, path)
			return nil
		},
	}
}

func newExcludeListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List excluded project IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ids := append([]string(nil), cfg.Exclusions.ProjectIDs...)
			fromFile, err := readExclusionLines(exclusionFilePath(cfg))
			if err != nil {
				return err
			}
			ids = append(ids, fromFile...)

			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No excluded projects.")
				return nil
			}
			sort.Strings(ids)
			seen := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

// exclusionFilePath falls back to a file beside the state so `exclude
// add` works without explicit configuration.
func exclusionFilePath(cfg *config.Config) string {
	if cfg.Exclusions.File != "" {
		return cfg.Exclusions.File
	}
	return filepath.Join(cfg.Paths.StateDir, "excluded_projects.txt")
}

func readExclusionLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read exclusions %s: %w", path, err)
	}
	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func writeExclusionLines(path string, ids []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create exclusions directory: %w", err)
	}
	content := strings.Join(ids, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write exclusions %s: %w", path, err)
	}
	return nil
}
