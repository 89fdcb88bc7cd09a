package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xavierca1/pipeline-crm/internal/envinject"
)

func newInjectEnvCmd(v *viper.Viper) *cobra.Command {
	var root, bundle string

	cmd := &cobra.Command{
		Use:   "inject-env [-- command args...]",
		Short: "Write runtime settings into the web bundle, then optionally start it",
		Long: `Replaces the public-setting placeholders in every .js file of the bundle
and in server.js, writes .env.production.local, and when a command follows
"--" runs it with the resolved settings in its environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := envinject.Values{
				SupabaseURL:    v.GetString(keySupabaseURL),
				AnonKey:        v.GetString(keyAnonKey),
				SiteURL:        v.GetString(keySiteURL),
				ServiceRoleKey: v.GetString(keyServiceRoleKey),
				IngestToken:    v.GetString(keyIngestToken),
				DedupeField:    v.GetString(keyDedupeField),
			}

			res, err := envinject.Inject(root, bundle, values)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ injected settings into %d file(s), wrote %s\n", len(res.FilesChanged), res.EnvFile)

			if len(args) == 0 {
				return nil
			}
			resolved, _ := values.Resolve()
			child := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
			child.Dir = root
			child.Env = resolved.Environ(os.Environ())
			child.Stdin, child.Stdout, child.Stderr = os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr()
			return child.Run()
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "application root holding server.js")
	cmd.Flags().StringVar(&bundle, "bundle", ".next", "bundle directory, relative to --root")
	cmd.Flags().String("supabase-url", "", "public Supabase URL (env "+keySupabaseURL+")")
	cmd.Flags().String("anon-key", "", "public anon key (env "+keyAnonKey+")")
	cmd.Flags().String("site-url", "", "public site URL, defaults to the Supabase URL (env "+keySiteURL+")")
	bindFlag(v, cmd, keySupabaseURL, "supabase-url")
	bindFlag(v, cmd, keyAnonKey, "anon-key")
	bindFlag(v, cmd, keySiteURL, "site-url")
	for _, k := range []string{keyServiceRoleKey, keyIngestToken, keyDedupeField} {
		_ = v.BindEnv(k)
	}
	return cmd
}
