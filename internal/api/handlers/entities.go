package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
)

// EntitiesHandler serves the published entity registry
type EntitiesHandler struct {
	registry *publish.Registry
	logger   *logrus.Logger
}

// NewEntitiesHandler creates a new entities handler
func NewEntitiesHandler(registry *publish.Registry, logger *logrus.Logger) *EntitiesHandler {
	return &EntitiesHandler{registry: registry, logger: logger}
}

// ServeHTTP handles GET /api/entities with optional ?kind= and ?key= filters
func (h *EntitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kind := models.EntityKind(r.URL.Query().Get("kind"))

	if key := r.URL.Query().Get("key"); key != "" {
		ent, ok := h.lookup(kind, key)
		if !ok {
			http.Error(w, "Entity not found", http.StatusNotFound)
			return
		}
		writeJSON(w, h.logger, ent)
		return
	}

	writeJSON(w, h.logger, h.registry.List(kind))
}

// lookup resolves a key within one kind, or across every kind when the
// request did not narrow it down.
func (h *EntitiesHandler) lookup(kind models.EntityKind, key string) (*publish.Entity, bool) {
	if kind != "" {
		return h.registry.Get(kind, key)
	}
	for _, k := range []models.EntityKind{models.EntityPlayer, models.EntitySensor} {
		if ent, ok := h.registry.Get(k, key); ok {
			return ent, true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}
