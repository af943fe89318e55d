package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	// Refresh Token Config
	RefreshTokenExpiryDuration time.Duration
	RefreshTokenSecret         string

	// External OAuth Providers
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	FrontendBaseURL    string `mapstructure:"FRONTEND_BASE_URL"`

	// Market data provider
	FMPAPIKey  string `mapstructure:"FMP_API_KEY"`
	FMPBaseURL string `mapstructure:"FMP_BASE_URL"`

	// Job queue
	NATSURL string `mapstructure:"NATS_URL"`

	// Analytics
	PostHogAPIKey string `mapstructure:"POSTHOG_API_KEY"`

	CORSAllowedOrigins []string
	AuthRateLimit      string

	// Report output
	OutputDir string

	Tickers TickerConfig
}

// TickerConfig lists the tickers the fetch commands cover, split by listing
// venue because FMP allows batch profile requests for US symbols only.
type TickerConfig struct {
	US    []string `mapstructure:"us"`
	NonUS []string `mapstructure:"non_us"`
}

// All returns every configured ticker, US first.
func (t TickerConfig) All() []string {
	all := make([]string, 0, len(t.US)+len(t.NonUS))
	all = append(all, t.US...)
	all = append(all, t.NonUS...)
	return all
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "market-cap-app")
	viper.SetDefault("REFRESH_TOKEN_EXPIRY_DURATION", "168h")
	viper.SetDefault("REFRESH_TOKEN_SECRET", "default_insecure_refresh_secret_please_change_this_!@#$")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("FMP_API_KEY", "")
	viper.SetDefault("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("AUTH_RATE_LIMIT", "5-M")
	viper.SetDefault("OUTPUT_DIR", "output")
	viper.SetDefault("TICKER_CONFIG_PATH", "config.toml")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	// JWT Expiry Duration (e.g., "60m", "1h")
	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour * 1
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	// Refresh Token Expiry Duration (e.g., "168h" for 7 days)
	refreshTokenExpiryStr := viper.GetString("REFRESH_TOKEN_EXPIRY_DURATION")
	refreshTokenExpiryDuration, err := time.ParseDuration(refreshTokenExpiryStr)
	if err != nil {
		refreshTokenExpiryDuration = time.Hour * 24 * 7
		log.Printf("Warning: Invalid value for REFRESH_TOKEN_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", refreshTokenExpiryStr, refreshTokenExpiryDuration.String())
	}
	cfg.RefreshTokenExpiryDuration = refreshTokenExpiryDuration
	cfg.RefreshTokenSecret = viper.GetString("REFRESH_TOKEN_SECRET")

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "" {
		log.Println("Warning: Google OAuth credentials not fully set. Google login will not function.")
	}

	cfg.FMPAPIKey = viper.GetString("FMP_API_KEY")
	if cfg.FMPAPIKey == "" {
		log.Println("Warning: FMP_API_KEY environment variable not set. Fetch commands will fail.")
	}
	cfg.FMPBaseURL = viper.GetString("FMP_BASE_URL")

	cfg.NATSURL = viper.GetString("NATS_URL")
	cfg.PostHogAPIKey = viper.GetString("POSTHOG_API_KEY")

	cfg.CORSAllowedOrigins = splitAndTrim(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.AuthRateLimit = viper.GetString("AUTH_RATE_LIMIT")
	cfg.OutputDir = viper.GetString("OUTPUT_DIR")

	cfg.Tickers = loadTickerConfig(viper.GetString("TICKER_CONFIG_PATH"))

	return cfg, nil
}

// defaultTickers is the built-in watchlist used when no ticker config file is
// present.
var defaultTickers = TickerConfig{
	US:    []string{"NKE", "TJX", "VFC"},
	NonUS: []string{"C.PA", "LVMH.PA", "ITX.MC"},
}

// loadTickerConfig reads the ticker lists from a TOML file. A missing or
// invalid file falls back to the built-in watchlist.
func loadTickerConfig(path string) TickerConfig {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read ticker config %s: %v. Using built-in watchlist.\n", path, err)
		return defaultTickers
	}

	var tickers TickerConfig
	if err := v.UnmarshalKey("tickers", &tickers); err != nil {
		log.Printf("Warning: Invalid ticker config in %s: %v. Using built-in watchlist.\n", path, err)
		return defaultTickers
	}
	if len(tickers.All()) == 0 {
		return defaultTickers
	}
	return tickers
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
