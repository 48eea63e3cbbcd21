package main

import (
	"fmt"
	"strings"

	"github.com/bicep-tools/modrestore/internal/domain/values"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local module cache",
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(newCacheListCmd())
	cacheCmd.AddCommand(newCachePathCmd())
	cacheCmd.AddCommand(newCacheRemoveCmd())
}

func newCacheListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every populated cache entry",
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			entries, err := ctx.Container.ModuleCache().List(ctx.Context)
			if err != nil {
				return fmt.Errorf("failed to list cache: %w", err)
			}
			for _, entry := range entries {
				fmt.Printf("%s\t%s\t%s\n", entry.Reference.String(), entry.Path, strings.Join(entry.Files, ","))
			}
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}

func newCachePathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <reference>",
		Short: "Print the cache directory a reference resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ref, err := values.ParseModuleReference(args[0])
			if err != nil {
				return fmt.Errorf("invalid reference: %w", err)
			}
			fmt.Println(ctx.Container.ModuleCache().Path(ref))
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}

func newCacheRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <reference>",
		Short: "Remove a reference's cache entry",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ref, err := values.ParseModuleReference(args[0])
			if err != nil {
				return fmt.Errorf("invalid reference: %w", err)
			}
			if err := ctx.Container.ModuleCache().Remove(ctx.Context, ref); err != nil {
				return fmt.Errorf("failed to remove cache entry: %w", err)
			}
			fmt.Printf("removed %s\n", ref.String())
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}
