package firestore

import (
	"context"
	"os"
	"testing"

	"github.com/aanand-mishra/students-sync/internal/config"
	"github.com/aanand-mishra/students-sync/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to the Firestore emulator. Each test gets its own
// root collection so runs do not see each other's documents.
func newTestStore(t *testing.T) (*Firestore, string) {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	cfg := &config.Config{Storage: config.Storage{
		Driver:           config.DriverFirestore,
		FirestoreProject: "students-sync-test",
	}}

	f, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	return f, "students-" + uuid.NewString()
}

func TestFirestore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty collection is an empty slice", func(t *testing.T) {
		f, students := newTestStore(t)

		docs, err := f.List(ctx, students)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("add then list", func(t *testing.T) {
		f, students := newTestStore(t)

		id, err := f.Add(ctx, students, map[string]any{"id": "S1", "name": "Bob", "program": "CS"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		docs, err := f.List(ctx, students)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, id, docs[0].ID)
		assert.Equal(t, "S1", docs[0].String("id"))
		assert.Equal(t, "Bob", docs[0].String("name"))
		assert.Equal(t, "CS", docs[0].String("program"))
	})

	t.Run("set creates and overwrites", func(t *testing.T) {
		f, students := newTestStore(t)

		require.NoError(t, f.Set(ctx, students, "doc1", map[string]any{"name": "Bob", "program": "CS"}))
		require.NoError(t, f.Set(ctx, students, "doc1", map[string]any{"name": "Robert"}))

		docs, err := f.List(ctx, students)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Robert", docs[0].String("name"))
		assert.NotContains(t, docs[0].Data, "program")
	})

	t.Run("delete does not cascade", func(t *testing.T) {
		f, students := newTestStore(t)

		id, err := f.Add(ctx, students, map[string]any{"name": "Bob"})
		require.NoError(t, err)

		phones := storage.SubCollection(students, id, "phones")
		for _, n := range []string{"111", "222"} {
			_, err := f.Add(ctx, phones, map[string]any{"number": n})
			require.NoError(t, err)
		}

		require.NoError(t, f.Delete(ctx, students, id))
		require.NoError(t, f.Delete(ctx, students, "missing"))

		docs, err := f.List(ctx, students)
		require.NoError(t, err)
		assert.Empty(t, docs)

		orphans, err := f.List(ctx, phones)
		require.NoError(t, err)
		assert.Len(t, orphans, 2)
	})

	t.Run("invalid path", func(t *testing.T) {
		f, students := newTestStore(t)

		_, err := f.List(ctx, students+"/doc1")
		assert.ErrorIs(t, err, storage.ErrInvalidPath)
	})
}
