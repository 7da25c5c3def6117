package export

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inkpad/inkpad/internal/auth"
	"github.com/inkpad/inkpad/internal/board"
	"github.com/inkpad/inkpad/internal/store"
	"github.com/inkpad/inkpad/internal/store/storetest"
)

func newRouter(t *testing.T, maxPixels int) (*mux.Router, string) {
	t.Helper()
	mem := storetest.NewMemory()
	ctx := context.Background()
	if _, err := mem.CreateUser(ctx, store.User{ID: "user_owner", Email: "owner@example.com"}); err != nil {
		t.Fatal(err)
	}
	svc := board.NewService(mem)
	b, err := svc.Create(ctx, "user_owner", board.CreateOptions{Name: "Site plan v2!", Sample: true})
	if err != nil {
		t.Fatal(err)
	}

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if u := req.Header.Get("X-Test-User"); u != "" {
				req = req.WithContext(auth.WithUserID(req.Context(), u))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/api/drawings/{drawingId}/export", NewHandler(svc, maxPixels).Export).Methods("GET")
	return r, b.ID
}

func get(r http.Handler, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Export Tests
// ============================================================================

func TestExportPNG(t *testing.T) {
	r, id := newRouter(t, 1<<24)
	rec := get(r, "/api/drawings/"+id+"/export?format=png", "user_owner")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="Site-plan-v2-.png"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	painted := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 4 {
		for x := b.Min.X; x < b.Max.X; x += 4 {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || bl != 0xffff {
				painted++
			}
		}
	}
	if painted == 0 {
		t.Error("exported sample drawing is blank")
	}
}

func TestExportPDF(t *testing.T) {
	r, id := newRouter(t, 1<<24)
	rec := get(r, "/api/drawings/"+id+"/export?format=pdf", "user_owner")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("body does not start with a PDF header: %q", rec.Body.Bytes()[:min(8, rec.Body.Len())])
	}
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name      string
		maxPixels int
		path      string
		user      string
		want      int
	}{
		{"bad format", 1 << 24, "/export?format=svg", "user_owner", http.StatusBadRequest},
		{"not a member", 1 << 24, "/export?format=png", "user_other", http.StatusForbidden},
		{"too large", 1000, "/export?format=png", "user_owner", http.StatusRequestEntityTooLarge},
		{"pdf ignores pixel cap", 1000, "/export?format=pdf", "user_owner", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, id := newRouter(t, tt.maxPixels)
			rec := get(r, "/api/drawings/"+id+tt.path, tt.user)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plan", "plan"},
		{" Site plan ", "Site-plan"},
		{"../../etc", "------etc"},
		{"", "drawing"},
		{"!!!", "drawing"},
	}
	for _, tt := range tests {
		if got := filename(tt.in); got != tt.want {
			t.Errorf("filename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
