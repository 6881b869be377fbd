package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lyfesaver74/embywatch/internal/config"
	"github.com/lyfesaver74/embywatch/internal/controllers"
	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/identity"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
	"github.com/lyfesaver74/embywatch/internal/resolver"
	"github.com/lyfesaver74/embywatch/internal/utils"
)

type stubSessionAPI struct {
	sessions []emby.Session
	paused   string
}

func (s *stubSessionAPI) Sessions(ctx context.Context) ([]emby.Session, error) {
	return s.sessions, nil
}
func (s *stubSessionAPI) ItemImageURL(itemID string) string { return "" }
func (s *stubSessionAPI) UserImageURL(userID string) string { return "" }
func (s *stubSessionAPI) Play(ctx context.Context, sessionID string) error { return nil }
func (s *stubSessionAPI) Pause(ctx context.Context, sessionID string) error {
	s.paused = sessionID
	return nil
}
func (s *stubSessionAPI) Stop(ctx context.Context, sessionID string) error { return nil }
func (s *stubSessionAPI) Seek(ctx context.Context, sessionID string, positionSeconds float64) error {
	return nil
}

type stubGuide struct{}

func (stubGuide) ProgramByID(ctx context.Context, programID string) (*emby.Program, error) {
	return nil, nil
}
func (stubGuide) AiringProgram(ctx context.Context, channelID string) (*emby.Program, error) {
	return nil, nil
}
func (stubGuide) ChannelByID(ctx context.Context, channelID string) (*emby.Channel, error) {
	return nil, nil
}
func (stubGuide) ItemImageURL(itemID string) string { return "" }

func testFixtures(t *testing.T) (*publish.Registry, *controllers.SessionController, *stubSessionAPI) {
	t.Helper()
	logger := utils.NewLogger("error")
	registry := publish.NewRegistry(logger)
	api := &stubSessionAPI{
		sessions: []emby.Session{{ID: "session-1", UserName: "john", DeviceName: "Chrome"}},
	}
	cfg := &config.Config{EnableSessionPlayers: true}
	ctrl := controllers.NewSessionController(
		api, resolver.NewResolver(stubGuide{}, logger), identity.NewManager(),
		registry, nil, cfg, logger)
	if err := ctrl.Poll(context.Background()); err != nil {
		t.Fatalf("Seed poll failed: %v", err)
	}
	return registry, ctrl, api
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(utils.NewLogger("error"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Body mismatch: %v", body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST should be rejected, got %d", rec.Code)
	}
}

func TestSessionsList(t *testing.T) {
	registry, ctrl, _ := testFixtures(t)
	h := NewSessionsHandler(registry, ctrl, utils.NewLogger("error"))

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var players []publish.Entity
	if err := json.NewDecoder(rec.Body).Decode(&players); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(players) != 1 || players[0].Key != "emby_chrome_john" {
		t.Errorf("Players mismatch: %+v", players)
	}
}

func TestGetSession(t *testing.T) {
	registry, ctrl, _ := testFixtures(t)
	h := NewSessionsHandler(registry, ctrl, utils.NewLogger("error"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/emby_chrome_john", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/emby_missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown key should 404, got %d", rec.Code)
	}
}

func TestSendCommandEndpoint(t *testing.T) {
	registry, ctrl, api := testFixtures(t)
	h := NewSessionsHandler(registry, ctrl, utils.NewLogger("error"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/emby_chrome_john/command",
		strings.NewReader(`{"command": "pause"}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if api.paused != "session-1" {
		t.Errorf("Pause should reach the live session, got %q", api.paused)
	}

	// Commands to dead keys 404
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/emby_gone/command",
		strings.NewReader(`{"command": "play"}`))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Command to unknown key should 404, got %d", rec.Code)
	}

	// Garbage body
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/emby_chrome_john/command",
		strings.NewReader(`{broken`))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Malformed body should 400, got %d", rec.Code)
	}
}

func TestEntitiesHandler(t *testing.T) {
	registry, _, _ := testFixtures(t)
	registry.Publish(models.EntitySensor, "active_streams", 1, nil)
	h := NewEntitiesHandler(registry, utils.NewLogger("error"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities", nil))
	var all []publish.Entity
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 entities, got %d", len(all))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities?kind=sensor", nil))
	var sensors []publish.Entity
	if err := json.NewDecoder(rec.Body).Decode(&sensors); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(sensors) != 1 || sensors[0].Key != "active_streams" {
		t.Errorf("Kind filter mismatch: %+v", sensors)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities?kind=sensor&key=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown key filter should 404, got %d", rec.Code)
	}
}

func TestEntitiesKeyLookupWithoutKind(t *testing.T) {
	registry, _, _ := testFixtures(t)
	registry.Publish(models.EntitySensor, "active_streams", 1, nil)
	h := NewEntitiesHandler(registry, utils.NewLogger("error"))

	// A bare key must match whichever kind holds it
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities?key=active_streams", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Sensor lookup by key alone should succeed, got %d", rec.Code)
	}
	var ent publish.Entity
	if err := json.NewDecoder(rec.Body).Decode(&ent); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ent.Key != "active_streams" || ent.Kind != models.EntitySensor {
		t.Errorf("Entity mismatch: %+v", ent)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities?key=emby_chrome_john", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Player lookup by key alone should succeed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities?key=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown bare key should 404, got %d", rec.Code)
	}
}
