// Package storage provides persistent caching for the botboard service.
// It uses BoltDB as the underlying storage engine to keep the most recent
// bot snapshot and fetched backtest results across restarts, so the
// dashboard can serve stale-but-available data while the bot API is down.
//
// The package provides thread-safe operations for storing and retrieving
// cached records with automatic bucket management.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"botboard/internal/botapi"
	"botboard/internal/snapshot"

	"go.etcd.io/bbolt"
)

const (
	snapshotBucket  = "snapshot"  // Bucket holding the most recent snapshot
	backtestsBucket = "backtests" // Bucket holding backtest details keyed by run ID
)

// snapshotKey is the single key under which the latest snapshot lives.
var snapshotKey = []byte("latest")

// Store provides persistent caching using BoltDB. It keeps exactly one
// snapshot (the newest wins) plus every backtest detail that has ever been
// fetched, and hands them back marked stale after a restart.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
// Returns an error if the database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "botboard-cache.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket)); err != nil {
			return fmt.Errorf("create snapshot bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(backtestsBucket)); err != nil {
			return fmt.Errorf("create backtests bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
// It should be called when the storage is no longer needed to ensure
// proper cleanup of database resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot persists snap as the latest cached state, replacing whatever
// was stored before. Returns an error if the snapshot cannot be serialized
// or stored.
func (s *Store) SaveSnapshot(snap *snapshot.Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))

		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}

		return b.Put(snapshotKey, data)
	})
}

// LoadSnapshot returns the cached snapshot marked stale, or nil when the
// cache is empty. A stale snapshot lets the dashboard keep rendering the
// last known state while the bot API is unreachable.
func (s *Store) LoadSnapshot() (*snapshot.Snapshot, error) {
	var snap *snapshot.Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))
		data := b.Get(snapshotKey)
		if data == nil {
			return nil
		}

		var loaded snapshot.Snapshot
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("unmarshal snapshot: %w", err)
		}
		loaded.Stale = true
		snap = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// SaveBacktest caches a backtest detail keyed by its run ID so a finished
// run stays viewable after the bot API forgets or drops it.
func (s *Store) SaveBacktest(detail *botapi.BacktestDetail) error {
	if detail.ID == "" {
		return fmt.Errorf("backtest detail has no id")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(backtestsBucket))

		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshal backtest: %w", err)
		}

		return b.Put([]byte(detail.ID), data)
	})
}

// LoadBacktest returns the cached backtest detail for the given run ID, or
// nil when that ID has never been cached.
func (s *Store) LoadBacktest(id string) (*botapi.BacktestDetail, error) {
	var detail *botapi.BacktestDetail

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(backtestsBucket))
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}

		var loaded botapi.BacktestDetail
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("unmarshal backtest: %w", err)
		}
		detail = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}
