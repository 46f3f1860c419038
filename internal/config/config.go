package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
	Auth       AuthConfig
	RecipesAPI RecipesAPIConfig
	Translate  TranslateConfig
	Import     ImportConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string
}

// AuthConfig groups authentication settings.
type AuthConfig struct {
	Session SessionConfig
}

// SessionConfig controls the session cookie issued after login.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// RecipesAPIConfig points the crawler at the third-party recipe API.
type RecipesAPIConfig struct {
	BaseURL string
	APIKey  string
	Headers map[string]string
	Timeout time.Duration
}

// TranslateConfig configures the translation service used by the importer.
type TranslateConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Source            string
	Target            string
	RequestsPerSecond float64
}

// ImportConfig drives the scheduled recipe import job.
type ImportConfig struct {
	Enabled      bool
	Schedule     string
	MaxRetries   int
	RetryBackoff time.Duration
	LeaseTTL     time.Duration
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		ShutdownTimeout: parseDurationWithDefault(os.Getenv("SERVER_SHUTDOWN_TIMEOUT"), 5*time.Second),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 0),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 0),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), 0),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 0),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Logging = LoggingConfig{
		Level: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.Auth = AuthConfig{
		Session: SessionConfig{
			Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 12*time.Hour),
			CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "foodgram_session"),
			CookieDomain: strings.TrimSpace(os.Getenv("SESSION_COOKIE_DOMAIN")),
			CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), true),
		},
	}

	cfg.RecipesAPI = RecipesAPIConfig{
		BaseURL: firstNonEmpty(os.Getenv("RECIPES_API_URL"), "https://api.spoonacular.com/"),
		APIKey:  strings.TrimSpace(os.Getenv("RECIPES_API_KEY")),
		Headers: parseHeaders(os.Getenv("RECIPES_API_HEADERS")),
		Timeout: parseDurationWithDefault(os.Getenv("RECIPES_API_TIMEOUT"), 30*time.Second),
	}

	cfg.Translate = TranslateConfig{
		APIKey:            strings.TrimSpace(os.Getenv("TRANSLATE_API_KEY")),
		BaseURL:           strings.TrimSpace(os.Getenv("TRANSLATE_BASE_URL")),
		Model:             strings.TrimSpace(os.Getenv("TRANSLATE_MODEL")),
		Source:            firstNonEmpty(os.Getenv("TRANSLATE_SOURCE"), "en"),
		Target:            firstNonEmpty(os.Getenv("TRANSLATE_TARGET"), "ru"),
		RequestsPerSecond: parseFloatWithDefault(os.Getenv("TRANSLATE_RPS"), 5),
	}

	cfg.Import = ImportConfig{
		Enabled:      parseBoolWithDefault(os.Getenv("IMPORT_ENABLED"), false),
		Schedule:     firstNonEmpty(os.Getenv("IMPORT_SCHEDULE"), "0 */3 * * *"),
		MaxRetries:   parseIntWithDefault(os.Getenv("IMPORT_MAX_RETRIES"), 3),
		RetryBackoff: parseDurationWithDefault(os.Getenv("IMPORT_RETRY_BACKOFF"), 10*time.Minute),
		LeaseTTL:     parseDurationWithDefault(os.Getenv("IMPORT_LEASE_TTL"), time.Hour),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	if cfg.Import.MaxRetries < 0 {
		return Config{}, fmt.Errorf("import max retries must not be negative")
	}
	if cfg.Import.Enabled && cfg.RecipesAPI.APIKey == "" {
		return Config{}, fmt.Errorf("recipes api key is required when the import job is enabled")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseFloatWithDefault(value string, def float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

// parseHeaders reads "Key=Value;Other=Value" pairs. Malformed pairs are ignored.
func parseHeaders(value string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}
