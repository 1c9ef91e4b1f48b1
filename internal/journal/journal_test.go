package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modfetch/modfetch/internal/download"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_AppendAndList(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	// Appended out of order to prove listing sorts by start time.
	second := &Record{
		StartedAt:    base.Add(time.Hour),
		FinishedAt:   base.Add(time.Hour + time.Minute),
		ConfigPath:   "mods.toml",
		Loader:       "fabric",
		GameVersions: []string{"1.21"},
		Stats:        map[string]download.Stats{"1.21": {Total: 3, Completed: 3}},
	}
	first := &Record{
		StartedAt:    base,
		FinishedAt:   base.Add(time.Minute),
		ConfigPath:   "mods.toml",
		Loader:       "fabric",
		GameVersions: []string{"1.20.1", "1.21"},
		Failed:       []string{"broken.jar"},
		Skipped:      []string{"old-mod"},
	}

	require.NoError(t, store.Append(second))
	require.NoError(t, store.Append(first))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, first.StartedAt, records[0].StartedAt)
	assert.Equal(t, []string{"broken.jar"}, records[0].Failed)
	assert.Equal(t, []string{"old-mod"}, records[0].Skipped)

	assert.Equal(t, second.StartedAt, records[1].StartedAt)
	assert.Equal(t, 3, records[1].Stats["1.21"].Completed)
}

func TestStore_AppendAssignsID(t *testing.T) {
	store := openTestStore(t)

	rec := &Record{StartedAt: time.Now()}
	require.NoError(t, store.Append(rec))

	assert.NotEqual(t, uuid.Nil, rec.ID)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(&Record{StartedAt: time.Now(), ConfigPath: "a.toml"}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.toml", records[0].ConfigPath)
}

func TestStore_ListEmpty(t *testing.T) {
	store := openTestStore(t)

	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}
