package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	OIDC struct {
		Issuer       string
		ClientID     string
		ClientSecret string
		RedirectURL  string
		// GroupsClaim names the ID token claim listing the user's groups.
		GroupsClaim string
		// ClassClaim names the claim carrying the student's class, if any.
		ClassClaim  string
		AdminGroups []string
	}
	Log struct {
		Level  string
		Format string
	}
	AdminEmail      string
	OrgName         string
	SessionLifetime time.Duration
	InsecureCookies bool
}

// OIDCEnabled reports whether SSO login is configured.
func (c *Config) OIDCEnabled() bool { return c.OIDC.Issuer != "" }

// Load reads config from environment (PINJAM_ prefix) and optional pinjam.yaml.
func Load() (*Config, error) {
	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PINJAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("pinjam")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "file:pinjam.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	v.SetDefault("session.lifetime", "720h")
	v.SetDefault("org_name", "Perpustakaan Sekolah")
	v.SetDefault("oidc.groups_claim", "groups")
	v.SetDefault("oidc.class_claim", "class")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	return v
}

func load(v *viper.Viper) (*Config, error) {
	_ = v.ReadInConfig() // optional config file

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.OIDC.Issuer = v.GetString("oidc.issuer")
	cfg.OIDC.ClientID = v.GetString("oidc.client_id")
	cfg.OIDC.ClientSecret = v.GetString("oidc.client_secret")
	cfg.OIDC.RedirectURL = v.GetString("oidc.redirect_url")
	cfg.OIDC.GroupsClaim = v.GetString("oidc.groups_claim")
	cfg.OIDC.ClassClaim = v.GetString("oidc.class_claim")
	cfg.OIDC.AdminGroups = splitList(v.GetStringSlice("oidc.admin_groups"))
	cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	cfg.Log.Format = strings.ToLower(v.GetString("log.format"))
	cfg.AdminEmail = v.GetString("admin_email")
	cfg.OrgName = v.GetString("org_name")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")

	lifetime, err := time.ParseDuration(v.GetString("session.lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid PINJAM_SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	switch cfg.DB.Driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("PINJAM_DB_DRIVER must be sqlite3, mysql, or postgres (got %q)", cfg.DB.Driver)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("PINJAM_DB_DSN is required")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("PINJAM_LOG_FORMAT must be text or json (got %q)", cfg.Log.Format)
	}

	if cfg.OIDCEnabled() {
		if cfg.OIDC.ClientID == "" {
			return nil, fmt.Errorf("PINJAM_OIDC_CLIENT_ID is required when PINJAM_OIDC_ISSUER is set")
		}
		if cfg.OIDC.ClientSecret == "" {
			return nil, fmt.Errorf("PINJAM_OIDC_CLIENT_SECRET is required when PINJAM_OIDC_ISSUER is set")
		}
		if cfg.OIDC.RedirectURL == "" {
			return nil, fmt.Errorf("PINJAM_OIDC_REDIRECT_URL is required when PINJAM_OIDC_ISSUER is set")
		}
	}

	return cfg, nil
}

// splitList flattens comma-separated entries so a list can come from YAML
// or from a single environment variable.
func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
