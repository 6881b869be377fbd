// Package identity assigns stable entity keys to ephemeral playback sessions.
// Keys are derived from (device, user), never from the server-assigned session
// id, which churns independently of the logical session.
package identity

import (
	"sync"
	"time"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/utils"
)

const keyPrefix = "emby"

// Tracked pairs a raw session with its stable entity key
type Tracked struct {
	Key     string
	Session emby.Session
}

// Diff reports how the key table changed between two polls
type Diff struct {
	Created  []string
	Retained []string
	Removed  []string
}

// Manager maintains the (device, user) → key table across poll cycles. Only
// the session poll cycle writes it.
type Manager struct {
	mu   sync.Mutex
	keys map[string]models.IdentityRecord
}

// NewManager creates an empty identity manager
func NewManager() *Manager {
	return &Manager{keys: make(map[string]models.IdentityRecord)}
}

// KeyFor derives the stable entity key for a session. User-less sessions get
// a device-only key.
func KeyFor(s *emby.Session) string {
	device := s.DeviceName
	if device == "" {
		device = s.Client
	}
	parts := []string{keyPrefix, utils.Slugify(device)}
	if s.UserName != "" {
		parts = append(parts, utils.Slugify(s.UserName))
	}
	key := parts[0]
	for _, p := range parts[1:] {
		if p != "" {
			key += "_" + p
		}
	}
	return key
}

// Apply merges one poll's raw sessions into the key table. Two concurrent
// sessions for the same (device, user) pair collapse into one logical
// session, last observed wins. The returned diff drives entity creation and
// teardown in the publisher.
func (m *Manager) Apply(sessions []emby.Session, now time.Time) ([]Tracked, Diff) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := make([]string, 0, len(sessions))
	byKey := make(map[string]emby.Session, len(sessions))
	for _, s := range sessions {
		key := KeyFor(&s)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = s
	}

	var diff Diff
	for _, key := range order {
		s := byKey[key]
		if _, ok := m.keys[key]; ok {
			diff.Retained = append(diff.Retained, key)
		} else {
			diff.Created = append(diff.Created, key)
		}
		m.keys[key] = models.IdentityRecord{
			Key:      key,
			Device:   s.DeviceName,
			User:     s.UserName,
			LastSeen: now,
		}
	}

	for key := range m.keys {
		if _, ok := byKey[key]; !ok {
			diff.Removed = append(diff.Removed, key)
			delete(m.keys, key)
		}
	}

	tracked := make([]Tracked, 0, len(order))
	for _, key := range order {
		tracked = append(tracked, Tracked{Key: key, Session: byKey[key]})
	}
	return tracked, diff
}

// Seed preloads the key table from persisted records so a restart does not
// re-key sessions that survived it.
func (m *Manager) Seed(records []models.IdentityRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.keys[rec.Key] = rec
	}
}

// Export returns the current key table for persistence
func (m *Manager) Export() []models.IdentityRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]models.IdentityRecord, 0, len(m.keys))
	for _, rec := range m.keys {
		records = append(records, rec)
	}
	return records
}
