package authgate

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete configuration for the authentication gateway.
//
// Fields:
//   - ListenAddr: address the HTTP server listens on
//   - TokenLifetime: validity duration of issued session tokens
//   - SweepInterval: period of the background expiry reclaimer
//   - BlacklistGrace: extra retention on blacklist entries past token expiry
//   - APIKeys: keys trusted to request token issuance
//   - TargetURL: the hidden downstream webhook endpoint
//   - RelaySigningKey: HMAC key for the gateway-identity assertion on
//     relayed calls (min 32 bytes)
//   - RelayTimeout: timeout for the outbound webhook call
//   - AllowedOrigins: origins permitted by the CORS layer
//   - RateLimit: requests allowed per client per window; zero disables
//   - RateWindow: width of the fixed rate-limit window
//   - RedisAddr: optional Redis address; empty selects the in-memory backend
type Config struct {
	ListenAddr      string        `mapstructure:"LISTEN_ADDR"`
	TokenLifetime   time.Duration `mapstructure:"TOKEN_LIFETIME"`
	SweepInterval   time.Duration `mapstructure:"SWEEP_INTERVAL"`
	BlacklistGrace  time.Duration `mapstructure:"BLACKLIST_GRACE"`
	APIKeys         []string      `mapstructure:"-"`
	TargetURL       string        `mapstructure:"TARGET_URL"`
	RelaySigningKey string        `mapstructure:"RELAY_SIGNING_KEY"`
	RelayTimeout    time.Duration `mapstructure:"RELAY_TIMEOUT"`
	AllowedOrigins  []string      `mapstructure:"-"`
	RateLimit       int           `mapstructure:"RATE_LIMIT"`
	RateWindow      time.Duration `mapstructure:"RATE_WINDOW"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
}

// DefaultConfig returns a Config with production defaults: one-hour tokens,
// a sixty-second sweep, and the in-memory backend.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		TokenLifetime:  time.Hour,
		SweepInterval:  60 * time.Second,
		BlacklistGrace: 5 * time.Minute,
		RelayTimeout:   30 * time.Second,
		RateLimit:      120,
		RateWindow:     time.Minute,
	}
}

// LoadConfig reads .env (if present) and the process environment via Viper
// and returns a validated Config. Environment variables override .env
// values; missing .env is ignored.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("TOKEN_LIFETIME", "1h")
	v.SetDefault("SWEEP_INTERVAL", "60s")
	v.SetDefault("BLACKLIST_GRACE", "5m")
	v.SetDefault("RELAY_TIMEOUT", "30s")
	v.SetDefault("API_KEYS", "")
	v.SetDefault("TARGET_URL", "")
	v.SetDefault("RELAY_SIGNING_KEY", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("RATE_WINDOW", "1m")
	v.SetDefault("REDIS_ADDR", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.APIKeys = splitList(v.GetString("API_KEYS"))
	cfg.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if cfg.TokenLifetime <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if len(cfg.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required")
	}
	if cfg.TargetURL == "" {
		return fmt.Errorf("target webhook URL is required")
	}
	u, err := url.Parse(cfg.TargetURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target webhook URL %q is not an absolute URL", cfg.TargetURL)
	}
	if len(cfg.RelaySigningKey) < 32 {
		return fmt.Errorf("relay signing key must be at least 32 bytes")
	}
	if cfg.RateLimit > 0 && cfg.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive when rate limiting is enabled")
	}
	return nil
}

// splitList splits a comma-separated environment value into trimmed,
// non-empty entries.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
