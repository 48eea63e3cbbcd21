package main

import (
	"fmt"

	"github.com/bicep-tools/modrestore/internal/domain/values"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRestoreCmd())
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <reference>...",
		Short: "Restore one or more module references into the local cache",
		Long:  `Restore parses each reference, skips anything already cached, and pulls the rest.`,
		Example: `  # Restore a single OCI module
  bicep-restore restore oci:registry.example.com/bicep/modules/storage:1.0.0

  # Restore several references in one call
  bicep-restore restore ./vnet.bicep oci:registry.example.com/bicep/modules/storage:1.0.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			dispatcher := ctx.Container.Dispatcher()
			refs := dispatcher.ValidReferences(args)

			didWork, err := dispatcher.Restore(ctx.Context, refs)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			failed := false
			for _, raw := range args {
				if err, ok := dispatcher.TryGetError(raw); ok {
					fmt.Printf("%s: %v\n", raw, err)
					failed = true
					continue
				}
				ref, parseErr := values.ParseModuleReference(raw)
				if parseErr != nil {
					continue
				}
				if err, ok := dispatcher.TryGetError(ref.String()); ok {
					fmt.Printf("%s: %v\n", raw, err)
					failed = true
					continue
				}
				path, pathErr := dispatcher.TryGetLocalPath(ctx.Context, ref)
				if pathErr != nil {
					fmt.Printf("%s: %v\n", raw, pathErr)
					failed = true
					continue
				}
				fmt.Printf("%s -> %s\n", raw, path)
			}

			if !didWork {
				fmt.Println("everything already cached")
			}
			if failed {
				return fmt.Errorf("one or more references failed to restore")
			}
			return nil
		}),
	}

	addCommonFlags(cmd)

	return cmd
}
