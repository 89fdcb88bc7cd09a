package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xavierca1/pipeline-crm/internal/config"
	"github.com/xavierca1/pipeline-crm/internal/infra/database"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the crmctl version and schema version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crmctl %s (schema %d)\n", config.Version, database.SchemaVersion())
		},
	}
}
