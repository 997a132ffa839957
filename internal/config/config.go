// Package config loads call center configuration from the environment.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort        = "5001"
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultDriver      = "sqlite3"
	DefaultDatabaseURL = "file:conversations.db?cache=shared&mode=rwc"
	DefaultDumpPath    = "conversaciones_temp.txt"
	DefaultTTSEngine   = "console"
	DefaultMaxTurns    = 6
	DefaultMySQLPort   = 3306
)

// MySQL holds the discrete MYSQL_* connection parameters.
type MySQL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Configured reports whether a MySQL host was supplied.
func (m MySQL) Configured() bool {
	return m.Host != ""
}

// App holds all configuration for the call center binaries.
// Flag parsing is done in cmd/*; this struct is data only.
type App struct {
	// Completion endpoint.
	APIKey        string
	BaseURL       string
	ModelOverride string

	// HTTP control surface.
	Port string

	// Transcript store.
	DatabaseDriver string
	DatabaseURL    string
	MySQL          MySQL
	DumpPath       string

	// Speech.
	TTSEngine     string // "console", "openai", "elevenlabs"
	OpenAIKey     string
	ElevenLabsKey string
	TeacherVoice  string
	StudentVoice  string

	// Call.
	MaxTurns int

	// Google Docs export.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Logging.
	LogLevel string
}

// Default returns an App with built-in defaults and no credentials.
func Default() App {
	return App{
		BaseURL:        DefaultBaseURL,
		Port:           DefaultPort,
		DatabaseDriver: DefaultDriver,
		DatabaseURL:    DefaultDatabaseURL,
		DumpPath:       DefaultDumpPath,
		TTSEngine:      DefaultTTSEngine,
		MaxTurns:       DefaultMaxTurns,
		LogLevel:       "info",
	}
}

// Load reads a .env file if present, then the environment.
// The API key is resolved through the default credential chain.
func Load(ctx context.Context) (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, &ConfigError{Field: ".env", Message: "could not parse .env: " + err.Error()}
	}

	cfg := Default()
	cfg.LoadEnv()

	key, err := DefaultCredentials().APIKey(ctx)
	if err != nil && !errors.Is(err, ErrNoAPIKey) {
		return cfg, err
	}
	cfg.APIKey = key
	return cfg, nil
}

// LoadEnv applies environment overrides on top of the current values.
func (c *App) LoadEnv() {
	c.BaseURL = getEnv("GROQ_BASE_URL", c.BaseURL)
	c.ModelOverride = getEnv("GROQ_MODEL", c.ModelOverride)
	c.Port = getEnv("API_PORT", c.Port)

	c.MySQL = MySQL{
		Host:     os.Getenv("MYSQL_HOST"),
		Port:     getEnvInt("MYSQL_PORT", DefaultMySQLPort),
		User:     os.Getenv("MYSQL_USER"),
		Password: os.Getenv("MYSQL_PASSWORD"),
		Database: os.Getenv("MYSQL_DATABASE"),
	}
	if c.MySQL.Configured() {
		c.DatabaseDriver = "mysql"
	}
	c.DatabaseDriver = getEnv("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DumpPath = getEnv("TRANSCRIPT_DUMP", c.DumpPath)

	c.TTSEngine = strings.ToLower(getEnv("TTS_ENGINE", c.TTSEngine))
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
	c.TeacherVoice = getEnv("TEACHER_VOICE", c.TeacherVoice)
	c.StudentVoice = getEnv("STUDENT_VOICE", c.StudentVoice)

	c.MaxTurns = getEnvInt("MAX_TURNS", c.MaxTurns)

	c.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	c.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	c.GoogleRedirectURL = getEnv("GOOGLE_REDIRECT_URL", c.GoogleRedirectURL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate checks that required configuration is present.
// A missing API key is the only fatal condition. Speech settings are
// checked when the sink is built, which falls back to the console.
func (c *App) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.MaxTurns < 1 {
		return &ConfigError{Field: "MaxTurns", Message: "MAX_TURNS must be at least 1"}
	}
	return nil
}

// GoogleConfigured reports whether Google Docs export can be enabled.
func (c *App) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
