package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the quote bot.
type Config struct {
	DiscordToken    string
	OwnerID         string
	DefaultPrefixes []string
	DBPath          string
	DataDir         string
	ServerPort      int
	LogLevel        string
	SentryDSN       string
	Environment     string
	ShutdownGrace   time.Duration
}

const (
	defaultDBPath        = "./data/quotebot.db"
	defaultDataDir       = "./data"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultShutdownGrace = 10 * time.Second
)

var defaultPrefixes = []string{"?"}

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		OwnerID:         os.Getenv("OWNER_ID"),
		DefaultPrefixes: defaultPrefixes,
		DBPath:          getEnv("DB_PATH", defaultDBPath),
		DataDir:         getEnv("DATA_DIR", defaultDataDir),
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		Environment:     os.Getenv("ENV"),
		ShutdownGrace:   defaultShutdownGrace,
	}

	if prefixesJSON := os.Getenv("PREFIXES"); prefixesJSON != "" {
		prefixes, err := parsePrefixes(prefixesJSON)
		if err != nil {
			return nil, eris.Wrap(err, "parsing PREFIXES")
		}
		cfg.DefaultPrefixes = prefixes
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	if graceValue := os.Getenv("SHUTDOWN_GRACE"); graceValue != "" {
		grace, err := time.ParseDuration(graceValue)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid SHUTDOWN_GRACE value: %s", graceValue)
		}
		cfg.ShutdownGrace = grace
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parsePrefixes(raw string) ([]string, error) {
	// Accept either a JSON array of strings or an object with a `prefixes` field.
	var arrayInput []string
	if err := json.Unmarshal([]byte(raw), &arrayInput); err == nil {
		if len(arrayInput) == 0 {
			return nil, eris.New("prefix list is empty")
		}
		return arrayInput, nil
	}

	var objectInput struct {
		Prefixes []string `json:"prefixes"`
	}
	if err := json.Unmarshal([]byte(raw), &objectInput); err != nil {
		return nil, eris.Wrap(err, "decoding JSON")
	}

	if len(objectInput.Prefixes) == 0 {
		return nil, eris.New("prefix list is empty")
	}

	return objectInput.Prefixes, nil
}
