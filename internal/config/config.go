// Package config handles loading and parsing application configuration.
// The config file path comes from (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// A .env file in the working directory, when present, is loaded into the
// environment first. It never overrides variables that are already set.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers accepted in storage.driver.
const (
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverMemory    = "memory"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Sync       Sync       `yaml:"sync"`
}

// Storage selects and configures the document store backend.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// Path is the SQLite database file.
	Path string `yaml:"path" env:"STORAGE_PATH"`

	// FirestoreProject is the Google Cloud project that owns the database.
	FirestoreProject string `yaml:"firestore_project" env:"FIRESTORE_PROJECT"`
	// CredentialsFile is optional; application default credentials are
	// used when it is empty.
	CredentialsFile string `yaml:"credentials_file" env:"FIRESTORE_CREDENTIALS_FILE"`

	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"students"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
}

// Sync tunes the student directory.
type Sync struct {
	// MaxInFlight bounds concurrent phone writes during an update.
	// Zero or less means unbounded.
	MaxInFlight int `yaml:"max_in_flight" env:"SYNC_MAX_IN_FLIGHT" env-default:"8"`

	// RefreshSchedule is an optional cron spec ("@every 30s", "*/5 * * * *")
	// for reloading the directory from the store.
	RefreshSchedule string `yaml:"refresh_schedule" env:"SYNC_REFRESH_SCHEDULE"`
}

// Validate checks that the selected driver has what it needs.
func (c *Config) Validate() error {
	s := c.Storage
	switch s.Driver {
	case DriverSQLite:
		if s.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case DriverFirestore:
		if s.FirestoreProject == "" {
			return errors.New("storage.firestore_project is required for the firestore driver")
		}
	case DriverMongo:
		if s.MongoURI == "" {
			return errors.New("storage.mongo_uri is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", s.Driver)
	}
	return nil
}

// Load reads the config file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to fatal on failure. If this
// returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
