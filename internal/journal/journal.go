// Package journal persists a record of each completed run. It is write-only
// bookkeeping surfaced by the history command; nothing in the pipeline reads
// it back to short-circuit resolution or downloads.
package journal

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/modfetch/modfetch/internal/download"
)

const (
	runsBucket     = "runs"
	metadataBucket = "metadata"
	schemaVersion  = 1
)

// Record summarizes one run.
type Record struct {
	ID           uuid.UUID                 `json:"id"`
	StartedAt    time.Time                 `json:"startedAt"`
	FinishedAt   time.Time                 `json:"finishedAt"`
	ConfigPath   string                    `json:"configPath"`
	Loader       string                    `json:"loader"`
	GameVersions []string                  `json:"gameVersions"`
	Stats        map[string]download.Stats `json:"stats"` // keyed by game version
	Failed       []string                  `json:"failed"`
	Skipped      []string                  `json:"skipped"`
}

// Store is a bbolt-backed journal.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	store := &Store{db: db}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) initialize() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("failed to create runs bucket: %w", err)
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		return meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion)))
	})
}

// Append stores a run record keyed by start time so listing is chronological.
func (s *Store) Append(rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(runsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", runsBucket)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal run record: %w", err)
		}

		key := rec.StartedAt.UTC().Format(time.RFC3339Nano) + "/" + rec.ID.String()

		return bucket.Put([]byte(key), data)
	})
}

// List returns all run records, oldest first.
func (s *Store) List() ([]*Record, error) {
	var records []*Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(runsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", runsBucket)
		}

		return bucket.ForEach(func(_, v []byte) error {
			rec := &Record{}
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("failed to unmarshal run record: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})

	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
