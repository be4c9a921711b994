package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("reads yaml and applies defaults", func(t *testing.T) {
		path := writeConfig(t, `
env: dev
storage:
  path: storage/students.db
http_server:
  address: localhost:8082
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "dev", cfg.Env)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "storage/students.db", cfg.Storage.Path)
		assert.Equal(t, "localhost:8082", cfg.HTTPServer.Addr)
		assert.Equal(t, 8, cfg.Sync.MaxInFlight)
		assert.Empty(t, cfg.Sync.RefreshSchedule)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", DriverMemory)
		t.Setenv("SYNC_REFRESH_SCHEDULE", "@every 1m")

		path := writeConfig(t, `
env: prod
http_server:
  address: :8080
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
		assert.Equal(t, "@every 1m", cfg.Sync.RefreshSchedule)
	})

	t.Run("missing required field", func(t *testing.T) {
		path := writeConfig(t, `
env: dev
storage:
  driver: memory
`)

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("driver settings are validated", func(t *testing.T) {
		path := writeConfig(t, `
env: dev
storage:
  driver: firestore
http_server:
  address: :8080
`)

		_, err := Load(path)
		assert.ErrorContains(t, err, "firestore_project")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		storage Storage
		wantErr bool
	}{
		{"sqlite with path", Storage{Driver: DriverSQLite, Path: "x.db"}, false},
		{"sqlite without path", Storage{Driver: DriverSQLite}, true},
		{"firestore with project", Storage{Driver: DriverFirestore, FirestoreProject: "p"}, false},
		{"mongo without uri", Storage{Driver: DriverMongo}, true},
		{"mongo with uri", Storage{Driver: DriverMongo, MongoURI: "mongodb://localhost"}, false},
		{"memory", Storage{Driver: DriverMemory}, false},
		{"unknown", Storage{Driver: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Env: "dev", Storage: tt.storage}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
