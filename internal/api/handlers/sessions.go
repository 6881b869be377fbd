package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/controllers"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
)

// SessionsHandler serves player entities and transport commands
type SessionsHandler struct {
	registry    *publish.Registry
	sessionCtrl *controllers.SessionController
	logger      *logrus.Logger
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(registry *publish.Registry, sessionCtrl *controllers.SessionController, logger *logrus.Logger) *SessionsHandler {
	return &SessionsHandler{
		registry:    registry,
		sessionCtrl: sessionCtrl,
		logger:      logger,
	}
}

// List handles GET /api/sessions
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.logger, h.registry.List(models.EntityPlayer))
}

// CommandRequest is the transport command payload
type CommandRequest struct {
	Command  string  `json:"command"`
	Position float64 `json:"position,omitempty"` // seconds, for seek
}

// ServeHTTP handles /api/sessions/{key} and /api/sessions/{key}/command
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.getSession(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "command":
		h.sendCommand(w, r, parts[0])
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func (h *SessionsHandler) getSession(w http.ResponseWriter, r *http.Request, key string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ent, ok := h.registry.Get(models.EntityPlayer, key)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, h.logger, ent)
}

func (h *SessionsHandler) sendCommand(w http.ResponseWriter, r *http.Request, key string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.sessionCtrl.SendCommand(r.Context(), key, controllers.Command(req.Command), req.Position)
	if err != nil {
		if errors.Is(err, controllers.ErrUnknownSession) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"key":     key,
			"command": req.Command,
		}).Error("Command failed")
		http.Error(w, "Command failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
