// Package publish decouples the derived-state engine from whatever consumes
// it. The core only ever talks to the Publisher interface.
package publish

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/models"
)

// Publisher updates externally visible entities. Implementations must be
// idempotent: publishing unchanged state is always safe.
type Publisher interface {
	Publish(kind models.EntityKind, key string, state interface{}, attributes map[string]interface{})
	Unavailable(kind models.EntityKind, key string)
	Remove(kind models.EntityKind, key string)
}

// Entity is one published entity's externally visible view
type Entity struct {
	Kind       models.EntityKind      `json:"kind"`
	Key        string                 `json:"key"`
	State      interface{}            `json:"state"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Available  bool                   `json:"available"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Registry is a concurrency-safe in-memory Publisher consumed by the HTTP
// API. Unavailable entities keep their last state and timestamp so consumers
// can show stale-but-valid data.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	logger   *logrus.Logger
}

// NewRegistry creates an empty entity registry
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		entities: make(map[string]*Entity),
		logger:   logger,
	}
}

func registryKey(kind models.EntityKind, key string) string {
	return string(kind) + "/" + key
}

// Publish records an entity's latest state and marks it available
func (r *Registry) Publish(kind models.EntityKind, key string, state interface{}, attributes map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[registryKey(kind, key)] = &Entity{
		Kind:       kind,
		Key:        key,
		State:      state,
		Attributes: attributes,
		Available:  true,
		UpdatedAt:  time.Now().UTC(),
	}
}

// Unavailable marks an entity stale without discarding its last state
func (r *Registry) Unavailable(kind models.EntityKind, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ent, ok := r.entities[registryKey(kind, key)]; ok {
		ent.Available = false
	}
}

// Remove deletes an entity entirely (session ended, category disabled)
func (r *Registry) Remove(kind models.EntityKind, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entities, registryKey(kind, key))
}

// Get returns one entity by kind and key
func (r *Registry) Get(kind models.EntityKind, key string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.entities[registryKey(kind, key)]
	if !ok {
		return nil, false
	}
	cp := *ent
	return &cp, true
}

// List returns all entities, optionally filtered by kind, sorted by key
func (r *Registry) List(kind models.EntityKind) []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, 0, len(r.entities))
	for _, ent := range r.entities {
		if kind != "" && ent.Kind != kind {
			continue
		}
		out = append(out, *ent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
