package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Snapshot is a category's last successful derived state. One row per
// category, overwritten on every successful poll; no history is kept.
type Snapshot struct {
	Category  Category `boltholdKey:"Category"`
	Payload   []byte
	UpdatedAt time.Time
}

// IdentityRecord is one row of the session identity key table
type IdentityRecord struct {
	Key      string `boltholdKey:"Key"`
	Device   string
	User     string
	LastSeen time.Time
}

// Store wraps the bolthold state store
type Store struct {
	store *bolthold.Store
}

// NewStore opens the state store
func NewStore(path string) (*Store, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	return &Store{store: store}, nil
}

// Close closes the store
func (s *Store) Close() error {
	return s.store.Close()
}

// SaveSnapshot records a category's latest successful state
func (s *Store) SaveSnapshot(category Category, state interface{}) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", category, err)
	}
	snap := &Snapshot{
		Category:  category,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	return s.store.Upsert(category, snap)
}

// LoadSnapshot restores a category's last known state into out. Returns
// (false, nil) when no snapshot exists yet.
func (s *Store) LoadSnapshot(category Category, out interface{}) (bool, error) {
	var snap Snapshot
	err := s.store.Get(category, &snap)
	if err == bolthold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(snap.Payload, out); err != nil {
		return false, fmt.Errorf("failed to decode %s snapshot: %w", category, err)
	}
	return true, nil
}

// SnapshotUpdatedAt returns when a category's snapshot was last written
func (s *Store) SnapshotUpdatedAt(category Category) (time.Time, bool) {
	var snap Snapshot
	if err := s.store.Get(category, &snap); err != nil {
		return time.Time{}, false
	}
	return snap.UpdatedAt, true
}

// SaveIdentities replaces the persisted identity key table
func (s *Store) SaveIdentities(records []IdentityRecord) error {
	var existing []IdentityRecord
	if err := s.store.Find(&existing, nil); err != nil {
		return err
	}
	for _, rec := range existing {
		if err := s.store.Delete(rec.Key, &IdentityRecord{}); err != nil {
			return err
		}
	}
	for _, rec := range records {
		rec := rec
		if err := s.store.Insert(rec.Key, &rec); err != nil {
			return err
		}
	}
	return nil
}

// LoadIdentities returns the persisted identity key table
func (s *Store) LoadIdentities() ([]IdentityRecord, error) {
	var records []IdentityRecord
	err := s.store.Find(&records, nil)
	return records, err
}
