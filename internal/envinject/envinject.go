// Package envinject writes runtime settings into a prebuilt web bundle whose
// public values were compiled in as placeholders.
package envinject

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	PlaceholderSupabaseURL = "__NEXT_PUBLIC_SUPABASE_URL__"
	PlaceholderAnonKey     = "__NEXT_PUBLIC_SUPABASE_ANON_KEY__"
	PlaceholderSiteURL     = "__NEXT_PUBLIC_SITE_URL__"

	EnvFileName = ".env.production.local"
)

var ErrMissingValues = errors.New("NEXT_PUBLIC_SUPABASE_URL and NEXT_PUBLIC_SUPABASE_ANON_KEY must be set")

type Values struct {
	SupabaseURL    string
	AnonKey        string
	SiteURL        string
	ServiceRoleKey string
	IngestToken    string
	DedupeField    string
}

// Resolve checks the required values and fills the site URL from the
// Supabase URL when it is not set.
func (v Values) Resolve() (Values, error) {
	if v.SupabaseURL == "" || v.AnonKey == "" {
		return v, ErrMissingValues
	}
	if v.SiteURL == "" {
		v.SiteURL = v.SupabaseURL
	}
	return v, nil
}

// EnvFile renders the env file the bundle's server reads at start. Ingest
// settings are only written when set.
func (v Values) EnvFile() string {
	lines := []string{
		"NEXT_PUBLIC_SUPABASE_URL=" + v.SupabaseURL,
		"NEXT_PUBLIC_SUPABASE_ANON_KEY=" + v.AnonKey,
		"NEXT_PUBLIC_SITE_URL=" + v.SiteURL,
		"SUPABASE_SERVICE_ROLE_KEY=" + v.ServiceRoleKey,
	}
	if v.IngestToken != "" {
		lines = append(lines, "N8N_INGEST_TOKEN="+v.IngestToken)
	}
	if v.DedupeField != "" {
		lines = append(lines, "N8N_DEDUPE_FIELD="+v.DedupeField)
	}
	return strings.Join(lines, "\n")
}

// Environ returns env with the resolved values set, for the child process.
func (v Values) Environ(env []string) []string {
	set := map[string]string{
		"NEXT_PUBLIC_SUPABASE_URL":      v.SupabaseURL,
		"NEXT_PUBLIC_SUPABASE_ANON_KEY": v.AnonKey,
		"NEXT_PUBLIC_SITE_URL":          v.SiteURL,
		"SUPABASE_SERVICE_ROLE_KEY":     v.ServiceRoleKey,
	}
	out := make([]string, 0, len(env)+len(set))
	for _, kv := range env {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := set[k]; !ok {
			out = append(out, kv)
		}
	}
	for _, k := range []string{"NEXT_PUBLIC_SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_ANON_KEY", "NEXT_PUBLIC_SITE_URL", "SUPABASE_SERVICE_ROLE_KEY"} {
		out = append(out, k+"="+set[k])
	}
	return out
}

type Result struct {
	FilesChanged []string
	EnvFile      string
}

// Inject replaces the placeholders in every .js file under root/bundleDir and
// in root/server.js, then writes root/.env.production.local.
func Inject(root, bundleDir string, v Values) (*Result, error) {
	v, err := v.Resolve()
	if err != nil {
		return nil, err
	}
	r := strings.NewReplacer(
		PlaceholderSupabaseURL, v.SupabaseURL,
		PlaceholderAnonKey, v.AnonKey,
		PlaceholderSiteURL, v.SiteURL,
	)

	res := &Result{}
	err = filepath.WalkDir(filepath.Join(root, bundleDir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".js") {
			return nil
		}
		changed, err := replaceInFile(path, r)
		if changed {
			res.FilesChanged = append(res.FilesChanged, path)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process bundle: %w", err)
	}

	server := filepath.Join(root, "server.js")
	changed, err := replaceInFile(server, r)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	case changed:
		res.FilesChanged = append(res.FilesChanged, server)
	}

	res.EnvFile = filepath.Join(root, EnvFileName)
	if err := os.WriteFile(res.EnvFile, []byte(v.EnvFile()), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", EnvFileName, err)
	}
	return res, nil
}

func replaceInFile(path string, r *strings.Replacer) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out := r.Replace(string(raw))
	if out == string(raw) {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, []byte(out), info.Mode().Perm())
}
