package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sydlexius/colophon/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the colophon version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "colophon %s\n", version.Version)
		},
	}
}
