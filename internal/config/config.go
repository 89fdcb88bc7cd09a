package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

// EnvFiles are loaded in order. A variable already set, by the process or by
// an earlier file, is never overridden.
var EnvFiles = []string{".env.production.local", ".env.local", ".env"}

type Mail struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (m Mail) Enabled() bool {
	return m.Host != ""
}

type Config struct {
	Port        string
	DatabaseURL string

	SupabaseURL    string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	SiteURL        string

	IngestToken     string
	DedupeField     entity.DedupeField
	IngestRateLimit int

	AMQPURL  string
	RedisURL string
	Mail     Mail

	CORSOrigins []string
}

// Load reads the env files from the working directory and then the process
// environment.
func Load() (*Config, error) {
	if err := LoadEnvFiles("."); err != nil {
		return nil, err
	}
	return FromLookup(os.LookupEnv)
}

func LoadEnvFiles(dir string) error {
	for _, name := range EnvFiles {
		err := godotenv.Load(filepath.Join(dir, name))
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	return nil
}

// FromLookup builds the config from any variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var missing []string
	required := func(keys ...string) string {
		for _, k := range keys {
			if v := get(k, ""); v != "" {
				return v
			}
		}
		missing = append(missing, keys[0])
		return ""
	}

	cfg := &Config{
		Port:           get("PORT", "8080"),
		DatabaseURL:    required("DATABASE_URL"),
		SupabaseURL:    required("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"),
		JWTSecret:      required("SUPABASE_JWT_SECRET"),
		AnonKey:        get("NEXT_PUBLIC_SUPABASE_ANON_KEY", ""),
		ServiceRoleKey: get("SUPABASE_SERVICE_ROLE_KEY", ""),
		IngestToken:    get("N8N_INGEST_TOKEN", ""),
		AMQPURL:        get("AMQP_URL", ""),
		RedisURL:       get("REDIS_URL", ""),
		Mail: Mail{
			Host:     get("MAIL_HOST", ""),
			User:     get("MAIL_USER", ""),
			Password: get("MAIL_PASS", ""),
			From:     get("MAIL_FROM", ""),
		},
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg.SiteURL = strings.TrimRight(get("NEXT_PUBLIC_SITE_URL", "http://localhost:3000"), "/")

	field, err := entity.ParseDedupeField(get("N8N_DEDUPE_FIELD", ""))
	if err != nil {
		return nil, fmt.Errorf("N8N_DEDUPE_FIELD: %w", err)
	}
	cfg.DedupeField = field

	if cfg.Mail.Port, err = strconv.Atoi(get("MAIL_PORT", "587")); err != nil {
		return nil, fmt.Errorf("MAIL_PORT: %w", err)
	}
	if cfg.IngestRateLimit, err = strconv.Atoi(get("INGEST_RATE_LIMIT", "0")); err != nil || cfg.IngestRateLimit < 0 {
		return nil, fmt.Errorf("INGEST_RATE_LIMIT must be a non-negative integer")
	}

	for _, o := range strings.Split(get("CORS_ORIGINS", cfg.SiteURL), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

// Version is overridden at build time with -ldflags "-X ...config.Version=".
var Version = "0.1.0"
