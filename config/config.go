// Package config provides environment-based configuration for the Reqstly
// backend.
//
// Configuration is loaded from environment variables using Viper, with
// sensible defaults for development. Azure AD settings have no defaults;
// federated login stays disabled until they are present.
//
// # Environment Variables
//
//   - DB_TYPE: Database type (sqlite, postgres). Default: sqlite
//   - DSN: Database connection string. Default: reqstly.db
//   - SKIP_AUTO_MIGRATE: Skip automatic database migrations. Default: false
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - PORT: HTTP server port. Default: 8080
//   - SESSION_TTL_HOURS: Fixed session lifetime. Default: 24
//   - COOKIE_SECURE: Set the Secure flag on session cookies. Default: false
//   - REDIS_URL: Redis address for WebAuthn ceremony state; empty uses the
//     in-process store
//   - AZURE_TENANT_ID / AZURE_CLIENT_ID / AZURE_CLIENT_SECRET /
//     AZURE_REDIRECT_URL: Azure AD OIDC settings
//   - RP_ID / RP_DISPLAY_NAME / RP_ORIGINS: WebAuthn relying party settings
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DBType          string `mapstructure:"DB_TYPE"` // sqlite, postgres
	DSN             string `mapstructure:"DSN"`
	SkipAutoMigrate bool   `mapstructure:"SKIP_AUTO_MIGRATE"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	Port            int    `mapstructure:"PORT"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
	CookieSecure    bool   `mapstructure:"COOKIE_SECURE"`
	RedisURL        string `mapstructure:"REDIS_URL"`

	AzureTenantID     string `mapstructure:"AZURE_TENANT_ID"`
	AzureClientID     string `mapstructure:"AZURE_CLIENT_ID"`
	AzureClientSecret string `mapstructure:"AZURE_CLIENT_SECRET"`
	AzureRedirectURL  string `mapstructure:"AZURE_REDIRECT_URL"`

	RPID          string `mapstructure:"RP_ID"`
	RPDisplayName string `mapstructure:"RP_DISPLAY_NAME"`
	RPOrigins     string `mapstructure:"RP_ORIGINS"` // comma-separated
}

// AzureConfigured reports whether federated login can be wired up.
func (c *Config) AzureConfigured() bool {
	return c.AzureTenantID != "" && c.AzureClientID != "" && c.AzureClientSecret != ""
}

// Origins splits RP_ORIGINS into the list the WebAuthn library expects.
func (c *Config) Origins() []string {
	if c.RPOrigins == "" {
		return nil
	}
	parts := strings.Split(c.RPOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "reqstly.db")
	viper.SetDefault("SKIP_AUTO_MIGRATE", false)
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("RP_ID", "localhost")
	viper.SetDefault("RP_DISPLAY_NAME", "Reqstly")
	viper.SetDefault("RP_ORIGINS", "http://localhost:8080")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
