package statusapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"wheelly/control/internal/logging"
	"wheelly/control/internal/worldmodel"
)

type fakeSnapshotter struct {
	wm worldmodel.WorldModel
	ok bool
}

func (f fakeSnapshotter) LatestSnapshot() (worldmodel.WorldModel, bool) { return f.wm, f.ok }

func TestHealthzAlwaysOpen(t *testing.T) {
	s := New(logging.NewTestLogger(), "secret", nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStatusRequiresAdminToken(t *testing.T) {
	s := New(logging.NewTestLogger(), "secret", nil, fakeSnapshotter{ok: true}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/status?admin_token=secret", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with correct token, got %d", rec.Code)
	}
}

func TestStatusOpenWithoutAdminToken(t *testing.T) {
	s := New(logging.NewTestLogger(), "", nil, fakeSnapshotter{ok: true}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRawWSRequiresAuthToken(t *testing.T) {
	s := New(logging.NewTestLogger(), "secret", nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/ws/raw", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without auth_token, got %d", rec.Code)
	}
}
