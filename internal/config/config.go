// Package config provides the configuration structure for the voice clone service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	StorageBackendFilesystem = "filesystem"
	StorageBackendNATS       = "nats"
)

// Defaults applied to blank values.
const (
	defaultListenAddr       = ":3000"
	defaultDatabasePath     = "data/app.db"
	defaultStorageRoot      = "data/public"
	defaultProviderBaseURL  = "https://api.fish.audio"
	defaultObjectBucket     = "VOICE_CLONE_AUDIO"
	defaultGenerationSubj   = "voice_clone.generation.created"
	defaultLogsDir          = "logs"
	defaultMultipartMemory  = 32 << 20
	envPrefix               = "VOICE_CLONE_"
	errFmtInvalidEnvInteger = "invalid integer in %s: %w"
)

// Validation errors.
var (
	ErrUnknownStorageBackend = errors.New("unknown storage backend")
	ErrDatabasePathEmpty     = errors.New("database path cannot be empty")
	ErrStorageRootEmpty      = errors.New("storage root cannot be empty")
	ErrNATSURLEmpty          = errors.New("nats url is required for the nats storage backend")
	ErrNegativeTimeout       = errors.New("provider timeout cannot be negative")
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr         string `toml:"listen_addr"`
	MaxMultipartMemory int64  `toml:"max_multipart_memory"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// StorageConfig holds the blob storage settings.
type StorageConfig struct {
	Backend string `toml:"backend"`
	Root    string `toml:"root"`
}

// ProviderConfig holds the Fish Audio client settings.
type ProviderConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NATSConfig holds the configuration for NATS. An empty URL disables it.
type NATSConfig struct {
	URL                      string `toml:"url"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
	GenerationCreatedSubject string `toml:"generation_created_subject"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Provider ProviderConfig `toml:"provider"`
	NATS     NATSConfig     `toml:"nats"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads the configuration. When path is empty the central configurator
// locates the project configuration; otherwise the TOML file at path is read.
// Values from envFile (if it exists) and the process environment override it.
func Load(path, envFile string, log *logger.Logger) (*Config, error) {
	var cfg Config

	if path == "" {
		err := configurator.Load(&cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
		}
	} else {
		err := LoadFile(path, &cfg)
		if err != nil {
			return nil, err
		}
	}

	err := loadEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	err = cfg.ApplyEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFile decodes the TOML file at path into cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}

	_, statErr := os.Stat(envFile)
	if errors.Is(statErr, os.ErrNotExist) {
		return nil
	}

	err := godotenv.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	return nil
}

// ApplyEnv overrides individual keys from VOICE_CLONE_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	stringOverrides := map[string]*string{
		"LISTEN_ADDR":     &c.Server.ListenAddr,
		"DATABASE_PATH":   &c.Database.Path,
		"STORAGE_BACKEND": &c.Storage.Backend,
		"STORAGE_ROOT":    &c.Storage.Root,
		"PROVIDER_URL":    &c.Provider.BaseURL,
		"NATS_URL":        &c.NATS.URL,
		"NATS_BUCKET":     &c.NATS.AudioObjectStoreBucket,
		"NATS_SUBJECT":    &c.NATS.GenerationCreatedSubject,
		"LOGS_DIR":        &c.Paths.BaseLogsDir,
	}

	for name, target := range stringOverrides {
		value := strings.TrimSpace(getenv(envPrefix + name))
		if value != "" {
			*target = value
		}
	}

	timeout := strings.TrimSpace(getenv(envPrefix + "PROVIDER_TIMEOUT_SECONDS"))
	if timeout != "" {
		seconds, err := strconv.Atoi(timeout)
		if err != nil {
			return fmt.Errorf(errFmtInvalidEnvInteger, envPrefix+"PROVIDER_TIMEOUT_SECONDS", err)
		}

		c.Provider.TimeoutSeconds = seconds
	}

	return nil
}

// ApplyDefaults fills blank values.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Server.ListenAddr, defaultListenAddr)
	setDefault(&c.Database.Path, defaultDatabasePath)
	setDefault(&c.Storage.Backend, StorageBackendFilesystem)
	setDefault(&c.Storage.Root, defaultStorageRoot)
	setDefault(&c.Provider.BaseURL, defaultProviderBaseURL)
	setDefault(&c.NATS.AudioObjectStoreBucket, defaultObjectBucket)
	setDefault(&c.NATS.GenerationCreatedSubject, defaultGenerationSubj)
	setDefault(&c.Paths.BaseLogsDir, defaultLogsDir)

	if c.Server.MaxMultipartMemory <= 0 {
		c.Server.MaxMultipartMemory = defaultMultipartMemory
	}

	c.Provider.BaseURL = strings.TrimRight(c.Provider.BaseURL, "/")
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return ErrDatabasePathEmpty
	}

	switch c.Storage.Backend {
	case StorageBackendFilesystem:
		if c.Storage.Root == "" {
			return ErrStorageRootEmpty
		}
	case StorageBackendNATS:
		if c.NATS.URL == "" {
			return ErrNATSURLEmpty
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageBackend, c.Storage.Backend)
	}

	if c.Provider.TimeoutSeconds < 0 {
		return ErrNegativeTimeout
	}

	return nil
}

func setDefault(target *string, value string) {
	if strings.TrimSpace(*target) == "" {
		*target = value
	}
}
