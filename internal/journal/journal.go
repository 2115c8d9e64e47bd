// Package journal keeps a local history of sync runs in a bbolt database.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "runs"

// Run summarises one preview or apply invocation
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Mode      string    `json:"mode"`
	Repo      string    `json:"repo"`
	Since     string    `json:"since"`
	Until     string    `json:"until"`
	Verified  bool      `json:"verified"`
	Issues    int       `json:"issues"`
	Seconds   int       `json:"seconds"`
	Uploaded  int       `json:"uploaded"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Outcome   string    `json:"outcome"`
}

// Journal is an append-only run log
type Journal struct {
	db *bolt.DB
}

// Open opens (or creates) the journal database at path
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database file lock
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores run and returns its id. Missing id and start time are filled in.
func (j *Journal) Append(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to encode run: %w", err)
	}

	err = j.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return bucket.Put(runKey(run), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store run: %w", err)
	}
	return run.ID, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (j *Journal) List(limit int) ([]Run, error) {
	var runs []Run
	err := j.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				continue
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return runs, nil
}

// runKey sorts chronologically: zero-padded UTC nanoseconds, then the id.
func runKey(run Run) []byte {
	return []byte(fmt.Sprintf("%020d-%s", run.StartedAt.UTC().UnixNano(), run.ID))
}
