package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/students-sync/internal/config"
	"github.com/aanand-mishra/students-sync/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	cfg := &config.Config{
		Storage: config.Storage{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "students.db"),
		},
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("add then list", func(t *testing.T) {
		s := newTestStore(t)

		id, err := s.Add(ctx, "students", map[string]any{"id": "S1", "name": "Bob", "program": "CS"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		docs, err := s.List(ctx, "students")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, id, docs[0].ID)
		assert.Equal(t, "S1", docs[0].String("id"))
		assert.Equal(t, "Bob", docs[0].String("name"))
		assert.Equal(t, "CS", docs[0].String("program"))
	})

	t.Run("empty collection is an empty slice", func(t *testing.T) {
		s := newTestStore(t)

		docs, err := s.List(ctx, "students")
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("set creates and overwrites", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.Set(ctx, "students", "doc1", map[string]any{"name": "Bob", "program": "CS"}))
		require.NoError(t, s.Set(ctx, "students", "doc1", map[string]any{"name": "Robert"}))

		docs, err := s.List(ctx, "students")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Robert", docs[0].String("name"))
		assert.NotContains(t, docs[0].Data, "program")
	})

	t.Run("collections are isolated and delete does not cascade", func(t *testing.T) {
		s := newTestStore(t)

		id, err := s.Add(ctx, "students", map[string]any{"name": "Bob"})
		require.NoError(t, err)

		phones := storage.SubCollection("students", id, "phones")
		for _, n := range []string{"111", "222"} {
			_, err := s.Add(ctx, phones, map[string]any{"number": n})
			require.NoError(t, err)
		}

		require.NoError(t, s.Delete(ctx, "students", id))

		docs, err := s.List(ctx, "students")
		require.NoError(t, err)
		assert.Empty(t, docs)

		orphans, err := s.List(ctx, phones)
		require.NoError(t, err)
		assert.Len(t, orphans, 2)
	})

	t.Run("invalid path", func(t *testing.T) {
		s := newTestStore(t)

		err := s.Set(ctx, "students/doc1", "x", map[string]any{})
		assert.ErrorIs(t, err, storage.ErrInvalidPath)
	})
}
