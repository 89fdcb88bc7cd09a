package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xavierca1/pipeline-crm/internal/infra/database"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := v.GetString(keyDatabaseURL)
			if dsn == "" {
				return errors.New("database url is required (--database-url or " + keyDatabaseURL + ")")
			}
			db, err := database.NewDBConnection(dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if status {
				current, err := database.CurrentVersion(cmd.Context(), db)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "schema version %d, code expects %d\n", current, database.SchemaVersion())
				return nil
			}

			applied, err := database.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema is up to date")
				return nil
			}
			for _, m := range applied {
				fmt.Fprintf(out, "📦 applied %s\n", m.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "only print the current and expected schema versions")
	cmd.Flags().String("database-url", "", "Postgres connection string (env "+keyDatabaseURL+")")
	bindFlag(v, cmd, keyDatabaseURL, "database-url")
	return cmd
}
