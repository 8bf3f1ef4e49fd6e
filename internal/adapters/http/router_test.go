package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akarpov/mediactl/internal/adapters/mediaws"
	"github.com/akarpov/mediactl/internal/app"
	"github.com/akarpov/mediactl/internal/config"
	"github.com/akarpov/mediactl/internal/core"
	"github.com/akarpov/mediactl/internal/domain"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *app.Orchestrator) {
	t.Helper()
	cfg := &config.Config{Mode: "release", Secret: "test-secret"}
	hub := mediaws.NewWatcherHub()
	orch := app.NewOrchestrator(app.NewSessions(), core.NewService(), hub)
	ws := mediaws.NewMediaWSController(orch, hub, mediaws.NewConnRateLimiter(100, time.Minute))
	return SetupRouter(context.Background(), cfg, orch, ws), orch
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", w.Code)
	}
}

func TestListControllers(t *testing.T) {
	r, orch := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/controllers")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/controllers = %d, want 200", w.Code)
	}
	var resp struct {
		Controllers []core.ControllerInfo `json:"controllers"`
		Active      int                   `json:"active"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Controllers) != 0 || resp.Active != 0 {
		t.Fatalf("empty service listed %+v", resp)
	}

	orch.Attach("sid-1", "tab-1", nil)
	if err := orch.OnMediaEvent("sid-1", "el", domain.MediaStarted); err != nil {
		t.Fatal(err)
	}

	w = doRequest(r, http.MethodGet, "/api/controllers")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Controllers) != 1 || resp.Active != 1 {
		t.Fatalf("list after start = %+v, want one active controller", resp)
	}
}

func TestGetController(t *testing.T) {
	r, orch := newTestRouter(t)

	if w := doRequest(r, http.MethodGet, "/api/controllers/tab-404"); w.Code != http.StatusNotFound {
		t.Fatalf("GET unknown controller = %d, want 404", w.Code)
	}

	orch.Attach("sid-1", "tab-1", nil)
	if err := orch.OnMediaEvent("sid-1", "el", domain.MediaStarted); err != nil {
		t.Fatal(err)
	}
	if err := orch.OnMediaEvent("sid-1", "el", domain.MediaPlayed); err != nil {
		t.Fatal(err)
	}

	w := doRequest(r, http.MethodGet, "/api/controllers/tab-1")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/controllers/tab-1 = %d, want 200", w.Code)
	}
	var info core.ControllerInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.MediaCount != 1 || info.State != domain.PlaybackPlaying || !info.Active {
		t.Fatalf("controller info = %+v", info)
	}
}

func TestControllerCommands(t *testing.T) {
	r, orch := newTestRouter(t)
	orch.Attach("sid-1", "tab-1", nil)

	if w := doRequest(r, http.MethodPost, "/api/controllers/tab-404/play"); w.Code != http.StatusNotFound {
		t.Fatalf("command on unknown controller = %d, want 404", w.Code)
	}
	if w := doRequest(r, http.MethodPost, "/api/controllers/tab-1/rewind"); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown command = %d, want 400", w.Code)
	}

	w := doRequest(r, http.MethodPost, "/api/controllers/tab-1/play")
	if w.Code != http.StatusOK {
		t.Fatalf("POST play = %d, want 200", w.Code)
	}
	var info core.ControllerInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.State != domain.PlaybackPlaying {
		t.Fatalf("state after play = %v, want playing", info.State)
	}
}

func TestMainCommandRouting(t *testing.T) {
	r, orch := newTestRouter(t)

	if w := doRequest(r, http.MethodPost, "/api/media/play"); w.Code != http.StatusNotFound {
		t.Fatalf("main command with no active controller = %d, want 404", w.Code)
	}

	orch.Attach("sid-1", "tab-1", nil)
	if err := orch.OnMediaEvent("sid-1", "el", domain.MediaStarted); err != nil {
		t.Fatal(err)
	}

	if w := doRequest(r, http.MethodPost, "/api/media/pause"); w.Code != http.StatusOK {
		t.Fatalf("POST /api/media/pause = %d, want 200", w.Code)
	}
	c, _ := orch.Media.GetController("tab-1")
	if got := c.PlaybackState(); got != domain.PlaybackPaused {
		t.Fatalf("state = %v, want paused", got)
	}
}
