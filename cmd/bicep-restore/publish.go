package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bicep-tools/modrestore/internal/application/dto"
	"github.com/bicep-tools/modrestore/internal/domain/values"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPublishCmd())
}

func newPublishCmd() *cobra.Command {
	var layerPaths []string

	cmd := &cobra.Command{
		Use:   "publish <reference>",
		Short: "Publish a module artifact to a registry",
		Long:  `Publish uploads an empty module config and the given layer files, then the manifest that ties them together.`,
		Example: `  # Publish a module with one compiled layer
  bicep-restore publish oci:registry.example.com/bicep/modules/storage:1.0.0 --layer main.json`,
		Args: cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			refStr := args[0]

			if len(layerPaths) == 0 {
				return fmt.Errorf("at least one --layer is required")
			}

			ref, err := values.ParseModuleReference(refStr)
			if err != nil {
				return fmt.Errorf("invalid reference: %w", err)
			}
			if !ref.IsOci() {
				return fmt.Errorf("publish requires an oci: reference, got %q", refStr)
			}

			layers := make([]dto.LayerSource, 0, len(layerPaths))
			for _, path := range layerPaths {
				cleanPath := filepath.Clean(path)
				content, err := os.ReadFile(cleanPath)
				if err != nil {
					return fmt.Errorf("read layer %s: %w", cleanPath, err)
				}
				layers = append(layers, dto.LayerSource{
					Annotations: map[string]string{values.TitleAnnotation: filepath.Base(cleanPath)},
					Content:     bytes.NewReader(content),
				})
			}

			artifact := dto.PushArtifact{
				Config: bytes.NewReader(nil),
				Layers: layers,
				Tag:    ref.Tag(),
			}

			ctx.Logger.Info("publishing module", "reference", ref.String())
			if err := ctx.Container.ArtifactManager().Push(ctx.Context, ref, artifact); err != nil {
				return fmt.Errorf("failed to publish module: %w", err)
			}

			fmt.Println("module published successfully.")
			return nil
		}),
	}

	cmd.Flags().StringArrayVar(&layerPaths, "layer", nil, "Path to a layer file (repeatable)")
	addCommonFlags(cmd)

	return cmd
}
