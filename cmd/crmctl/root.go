package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xavierca1/pipeline-crm/internal/config"
)

// Config keys double as environment variable names.
const (
	keySupabaseURL    = "NEXT_PUBLIC_SUPABASE_URL"
	keyAnonKey        = "NEXT_PUBLIC_SUPABASE_ANON_KEY"
	keySiteURL        = "NEXT_PUBLIC_SITE_URL"
	keyServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"
	keyIngestToken    = "N8N_INGEST_TOKEN"
	keyDedupeField    = "N8N_DEDUPE_FIELD"
	keyDatabaseURL    = "DATABASE_URL"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "crmctl",
		Short:         "Operator tasks for the pipeline CRM",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newInjectEnvCmd(v))
	root.AddCommand(newMigrateCmd(v))
	root.AddCommand(newVersionCmd())
	return root
}

// bindFlag lets a flag override the environment variable behind key.
func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	_ = v.BindEnv(key)
	_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
}
