package main

import (
	"fmt"

	"github.com/bicep-tools/modrestore/internal/version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.Get().Full())
			return nil
		},
	})
}
