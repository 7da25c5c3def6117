package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// ============================================================================
// Recovery Tests
// ============================================================================

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// ============================================================================
// Logger Tests
// ============================================================================

func TestLoggerPassesThrough(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("tea"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "tea" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatusWriterCounts(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}
	sw.Write([]byte("hello"))
	if sw.status != http.StatusOK || sw.bytes != 5 {
		t.Errorf("status %d bytes %d", sw.status, sw.bytes)
	}
	if _, _, err := sw.Hijack(); err == nil {
		t.Error("recorder cannot be hijacked")
	}
}

// ============================================================================
// CORS Tests
// ============================================================================

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantAllow  string
		wantStatus int
	}{
		{"allowed origin", []string{"http://localhost:5173"}, "http://localhost:5173", http.MethodGet, "http://localhost:5173", http.StatusOK},
		{"unknown origin", []string{"http://localhost:5173"}, "http://evil.test", http.MethodGet, "", http.StatusOK},
		{"wildcard", []string{"*"}, "http://anywhere.test", http.MethodGet, "http://anywhere.test", http.StatusOK},
		{"preflight", []string{"http://localhost:5173"}, "http://localhost:5173", http.MethodOptions, "http://localhost:5173", http.StatusNoContent},
		{"no origin", []string{"*"}, "", http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.origins)(http.HandlerFunc(ok))
			req := httptest.NewRequest(tt.method, "/api/drawings", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("allow origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}
