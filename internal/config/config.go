package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// BackendHTTP talks to a remote scheduling endpoint (e.g. an Apps Script web app).
	BackendHTTP = "http"
	// BackendSheets reads and writes bookings directly in a Google spreadsheet.
	BackendSheets = "sheets"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	WhatsApp   WhatsAppConfig
	Scheduling SchedulingConfig
	Sheets     SheetsConfig
	Session    SessionConfig
	Shop       ShopConfig
	MongoDB    MongoDBConfig
	Digest     DigestConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	// SendRate caps outbound messages per second.
	SendRate float64
}

// SchedulingConfig selects and configures the scheduling backend.
type SchedulingConfig struct {
	Backend string
	BaseURL string
	Timeout time.Duration
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// SessionConfig controls conversation lifetime.
type SessionConfig struct {
	InactivityTimeout time.Duration
}

// ShopConfig holds customer-facing settings.
type ShopConfig struct {
	Name     string
	Timezone string
}

// MongoDBConfig holds settings for the optional booking journal.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// DigestConfig holds the daily agenda digest settings.
type DigestConfig struct {
	OwnerPhone   string
	CronSchedule string
}

// JournalEnabled reports whether a MongoDB journal is configured.
func (c MongoDBConfig) JournalEnabled() bool {
	return c.URI != ""
}

// Enabled reports whether the digest has a recipient.
func (c DigestConfig) Enabled() bool {
	return c.OwnerPhone != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	sendRate, err := getenvFloat("WHATSAPP_SEND_RATE", 20)
	if err != nil {
		return nil, err
	}
	schedulingTimeout, err := getenvDuration("SCHEDULING_TIMEOUT", 8*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTimeout, err := getenvDuration("SESSION_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v18.0"),
			SendRate:      sendRate,
		},
		Scheduling: SchedulingConfig{
			Backend: strings.ToLower(getenvWithDefault("SCHEDULING_BACKEND", BackendHTTP)),
			BaseURL: os.Getenv("SHEET_API"),
			Timeout: schedulingTimeout,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Session: SessionConfig{
			InactivityTimeout: sessionTimeout,
		},
		Shop: ShopConfig{
			Name:     getenvWithDefault("SHOP_NAME", "Barbería Elite"),
			Timezone: getenvWithDefault("TIMEZONE", "America/Bogota"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "barberia"),
		},
		Digest: DigestConfig{
			OwnerPhone:   os.Getenv("OWNER_PHONE"),
			CronSchedule: getenvWithDefault("DIGEST_CRON", "0 20 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.WhatsApp.AccessToken == "":
		return errors.New("WHATSAPP_TOKEN must be provided")
	case c.WhatsApp.PhoneNumberID == "":
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
	case c.WhatsApp.VerifyToken == "":
		return errors.New("META_VERIFY_TOKEN must be provided")
	}

	if c.WhatsApp.BaseURL == "" {
		return errors.New("WHATSAPP_BASE_URL must not be empty")
	}

	if c.WhatsApp.APIVersion == "" {
		return errors.New("WHATSAPP_API_VERSION must not be empty")
	}

	if c.WhatsApp.SendRate <= 0 {
		return errors.New("WHATSAPP_SEND_RATE must be positive")
	}

	switch c.Scheduling.Backend {
	case BackendHTTP:
		if c.Scheduling.BaseURL == "" {
			return errors.New("SHEET_API must be provided for the http scheduling backend")
		}
	case BackendSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided for the sheets scheduling backend")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided for the sheets scheduling backend")
		}
	default:
		return fmt.Errorf("unsupported SCHEDULING_BACKEND %q", c.Scheduling.Backend)
	}

	if c.Scheduling.Timeout <= 0 {
		return errors.New("SCHEDULING_TIMEOUT must be positive")
	}

	if c.Session.InactivityTimeout <= 0 {
		return errors.New("SESSION_TIMEOUT must be positive")
	}

	if _, err := time.LoadLocation(c.Shop.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Shop.Timezone, err)
	}

	if c.Digest.Enabled() && c.Digest.CronSchedule == "" {
		return errors.New("DIGEST_CRON must be provided when OWNER_PHONE is set")
	}

	return nil
}

// Location resolves the shop timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Shop.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
