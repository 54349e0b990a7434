package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/idforge/backend/domain"
)

// Store wraps BoltDB to persist flushed domain events until the relay has
// delivered them. Keys order records by enqueue time so the relay drains in
// emission order.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "outbox"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue buffers one domain event. It satisfies the use-case outbox port.
func (s *Store) Enqueue(_ context.Context, event domain.Event) error {
	record, err := newRecord(event)
	if err != nil {
		return err
	}
	return s.put(record)
}

func (s *Store) put(record Record) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	record.normalize()
	record.bucketKey = []byte(buildKey(record))

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(record.bucketKey, payload)
	})
}

// GetBatch returns up to limit records without removing them.
func (s *Store) GetBatch(limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(records) < limit; k, v = c.Next() {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			record.bucketKey = append([]byte(nil), k...)
			records = append(records, record)
		}
		return nil
	})
	return records, err
}

// Remove deletes the provided record from the outbox.
func (s *Store) Remove(record Record) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(record.bucketKey) == 0 {
		return s.deleteByID(record.ID)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(record.bucketKey)
	})
}

// Requeue re-inserts a record after bumping its timestamp.
func (s *Store) Requeue(record Record) error {
	record.bucketKey = nil
	record.Timestamp = time.Now()
	return s.put(record)
}

// Size returns the number of buffered records.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes records older than the provided timestamp.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			if record.Timestamp.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func (s *Store) deleteByID(id string) error {
	if id == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			if record.ID == id {
				return c.Delete()
			}
		}
		return nil
	})
}

func buildKey(record Record) string {
	return fmt.Sprintf("%020d_%s", record.Timestamp.UnixNano(), record.ID)
}
