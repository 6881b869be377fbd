package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
	"github.com/lyfesaver74/embywatch/internal/scheduler"
)

// StatusHandler handles status requests
type StatusHandler struct {
	sched    *scheduler.Scheduler
	registry *publish.Registry
	logger   *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(sched *scheduler.Scheduler, registry *publish.Registry, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		sched:    sched,
		registry: registry,
		logger:   logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Categories []scheduler.CategoryStatus `json:"categories"`
	Players    int                        `json:"players"`
	Sensors    int                        `json:"sensors"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := StatusResponse{
		Categories: h.sched.Status(),
		Players:    len(h.registry.List(models.EntityPlayer)),
		Sensors:    len(h.registry.List(models.EntitySensor)),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode status response")
	}
}
