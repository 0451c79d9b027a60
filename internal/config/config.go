package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret          string   `mapstructure:"JWT_SECRET"`
	JWTExpire          string   `mapstructure:"JWT_EXPIRE"`
	JWTRefreshExpire   string   `mapstructure:"JWT_REFRESH_EXPIRE"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPM       float64  `mapstructure:"RATE_LIMIT_RPM"`
	RateLimitAuthRPM   float64  `mapstructure:"RATE_LIMIT_AUTH_RPM"`
	CacheTTLSeconds    int      `mapstructure:"CACHE_TTL_SECONDS"`
	AuditRetentionDays int      `mapstructure:"AUDIT_RETENTION_DAYS"`
	EmailFrom          string   `mapstructure:"EMAIL_FROM"`
	MigrationsDir      string   `mapstructure:"MIGRATIONS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("JWT_EXPIRE", "168h")
	v.SetDefault("JWT_REFRESH_EXPIRE", "720h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPM", 100)
	v.SetDefault("RATE_LIMIT_AUTH_RPM", 20)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("AUDIT_RETENTION_DAYS", 365)
	v.SetDefault("EMAIL_FROM", "no-reply@hospital.local")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_EXPIRE")
	v.BindEnv("JWT_REFRESH_EXPIRE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPM")
	v.BindEnv("RATE_LIMIT_AUTH_RPM")
	v.BindEnv("CACHE_TTL_SECONDS")
	v.BindEnv("AUDIT_RETENTION_DAYS")
	v.BindEnv("EMAIL_FROM")
	v.BindEnv("MIGRATIONS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AccessTTL returns the access token lifetime, falling back to 7 days when
// JWT_EXPIRE does not parse.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTExpire)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// RefreshTTL returns the refresh token lifetime, falling back to 30 days when
// JWT_REFRESH_EXPIRE does not parse.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshExpire)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// Validate checks that the configuration is safe to run. Outside development
// JWT_SECRET must be set so that tokens cannot be forged with a known key.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q. Refusing to start without a signing secret", c.Env)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must not be negative")
	}
	if c.AuditRetentionDays <= 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be positive")
	}
	return nil
}
