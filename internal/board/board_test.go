package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inkpad/inkpad/internal/auth"
	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/store"
	"github.com/inkpad/inkpad/internal/store/storetest"
)

type fixture struct {
	mem     *storetest.Memory
	service *Service
	owner   string
	guest   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storetest.NewMemory()
	ctx := context.Background()
	for _, u := range []store.User{
		{ID: "user_owner", Email: "owner@example.com", DisplayName: "Owner"},
		{ID: "user_guest", Email: "guest@example.com", DisplayName: "Guest"},
	} {
		if _, err := mem.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	return &fixture{mem: mem, service: NewService(mem), owner: "user_owner", guest: "user_guest"}
}

func (f *fixture) create(t *testing.T, opts CreateOptions) *Board {
	t.Helper()
	b, err := f.service.Create(context.Background(), f.owner, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return b
}

// ============================================================================
// Service Tests
// ============================================================================

func TestCreateSeedsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, CreateOptions{Name: "Plan"})

	if b.Width != drawing.DefaultWidth || b.Height != drawing.DefaultHeight {
		t.Errorf("size = %vx%v, want defaults", b.Width, b.Height)
	}
	raw, err := f.service.LatestDrawing(ctx, b.ID, f.owner)
	if err != nil {
		t.Fatalf("LatestDrawing: %v", err)
	}
	d, err := drawing.Parse(raw)
	if err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	if d.ID != b.ID || d.Name != "Plan" || d.Len() != 0 {
		t.Errorf("snapshot = %s %q with %d shapes", d.ID, d.Name, d.Len())
	}
}

func TestCreateSample(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, CreateOptions{Name: "Demo", Width: 1000, Height: 800, Sample: true})

	raw, err := f.service.LatestDrawing(context.Background(), b.ID, f.owner)
	if err != nil {
		t.Fatal(err)
	}
	d, err := drawing.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() == 0 || d.Width != 1000 || d.Name != "Demo" {
		t.Errorf("sample snapshot = %q %v wide with %d shapes", d.Name, d.Width, d.Len())
	}
}

func TestCreateRejectsSize(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		opts CreateOptions
	}{
		{"negative", CreateOptions{Name: "x", Width: -1}},
		{"huge", CreateOptions{Name: "x", Height: MaxSide + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), f.owner, tt.opts)
			if !errors.Is(err, ErrInvalidSize) {
				t.Errorf("err = %v, want ErrInvalidSize", err)
			}
		})
	}
}

func TestMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, CreateOptions{Name: "Plan"})

	if _, err := f.service.Get(ctx, b.ID, f.guest); !errors.Is(err, ErrNotMember) {
		t.Fatalf("guest Get err = %v, want ErrNotMember", err)
	}
	if err := f.service.InviteByEmail(ctx, b.ID, f.guest, "guest@example.com"); !errors.Is(err, ErrForbidden) {
		t.Errorf("guest invite err = %v, want ErrForbidden", err)
	}
	if err := f.service.InviteByEmail(ctx, b.ID, f.owner, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown invitee err = %v, want ErrUserNotFound", err)
	}
	if err := f.service.InviteByEmail(ctx, b.ID, f.owner, "guest@example.com"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := f.service.InviteByEmail(ctx, b.ID, f.owner, "guest@example.com"); err != nil {
		t.Errorf("repeat invite: %v", err)
	}

	if _, err := f.service.Get(ctx, b.ID, f.guest); err != nil {
		t.Errorf("guest Get after invite: %v", err)
	}
	members, err := f.service.ListMembers(ctx, b.ID, f.guest)
	if err != nil || len(members) != 2 {
		t.Fatalf("ListMembers = %v, %v", members, err)
	}
	if members[0].DisplayName != "Guest" || members[1].Role != store.RoleOwner {
		t.Errorf("members = %+v", members)
	}

	if err := f.service.RemoveMember(ctx, b.ID, f.owner, f.owner); !errors.Is(err, ErrOwnerRemoval) {
		t.Errorf("owner removal err = %v", err)
	}
	if err := f.service.RemoveMember(ctx, b.ID, f.owner, f.guest); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := f.service.RemoveMember(ctx, b.ID, f.owner, f.guest); !errors.Is(err, ErrNotMember) {
		t.Errorf("second removal err = %v, want ErrNotMember", err)
	}
}

func TestListRenameDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, CreateOptions{Name: "First"})
	second := f.create(t, CreateOptions{Name: "Second"})

	if err := f.service.Rename(ctx, first.ID, f.owner, "Renamed"); err != nil {
		t.Fatal(err)
	}
	boards, err := f.service.List(ctx, f.owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(boards) != 2 || boards[0].ID != first.ID || boards[0].Name != "Renamed" {
		t.Errorf("List = %+v", boards)
	}

	if err := f.service.Delete(ctx, second.ID, f.guest); !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrForbidden) {
		t.Errorf("guest delete err = %v", err)
	}
	if err := f.service.Delete(ctx, second.ID, f.owner); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.Get(ctx, second.ID, f.owner); !errors.Is(err, ErrNotMember) {
		t.Errorf("Get deleted err = %v", err)
	}
	if err := f.service.Delete(ctx, second.ID, f.owner); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

// ============================================================================
// HTTP Tests
// ============================================================================

func (f *fixture) router() *mux.Router {
	h := NewHandler(f.service)
	r := mux.NewRouter()
	r.HandleFunc("/drawings", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/drawings", h.List).Methods(http.MethodGet)
	r.HandleFunc("/drawings/{drawingId}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/drawings/{drawingId}", h.Rename).Methods(http.MethodPatch)
	r.HandleFunc("/drawings/{drawingId}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/drawings/{drawingId}/snapshots/latest", h.GetLatestSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/drawings/{drawingId}/invite", h.Invite).Methods(http.MethodPost)
	r.HandleFunc("/drawings/{drawingId}/members", h.ListMembers).Methods(http.MethodGet)
	r.HandleFunc("/drawings/{drawingId}/members/{userId}", h.RemoveMember).Methods(http.MethodDelete)
	return r
}

func do(r http.Handler, userID, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlers(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	rec := do(r, f.owner, http.MethodPost, "/drawings", `{"name":"Plan","sample":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	var b Board
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		user   string
		method string
		path   string
		body   string
		want   int
	}{
		{"create without name", f.owner, http.MethodPost, "/drawings", `{}`, http.StatusBadRequest},
		{"create bad size", f.owner, http.MethodPost, "/drawings", `{"name":"x","width":-5}`, http.StatusBadRequest},
		{"list", f.owner, http.MethodGet, "/drawings", "", http.StatusOK},
		{"get", f.owner, http.MethodGet, "/drawings/" + b.ID, "", http.StatusOK},
		{"get as stranger", f.guest, http.MethodGet, "/drawings/" + b.ID, "", http.StatusForbidden},
		{"snapshot", f.owner, http.MethodGet, "/drawings/" + b.ID + "/snapshots/latest", "", http.StatusOK},
		{"invite unknown", f.owner, http.MethodPost, "/drawings/" + b.ID + "/invite", `{"email":"x@example.com"}`, http.StatusNotFound},
		{"invite", f.owner, http.MethodPost, "/drawings/" + b.ID + "/invite", `{"email":"guest@example.com"}`, http.StatusCreated},
		{"members as guest", f.guest, http.MethodGet, "/drawings/" + b.ID + "/members", "", http.StatusOK},
		{"rename", f.guest, http.MethodPatch, "/drawings/" + b.ID, `{"name":"Shared"}`, http.StatusNoContent},
		{"remove owner", f.owner, http.MethodDelete, "/drawings/" + b.ID + "/members/" + f.owner, "", http.StatusBadRequest},
		{"delete as guest", f.guest, http.MethodDelete, "/drawings/" + b.ID, "", http.StatusForbidden},
		{"delete", f.owner, http.MethodDelete, "/drawings/" + b.ID, "", http.StatusNoContent},
		{"get deleted", f.owner, http.MethodGet, "/drawings/" + b.ID, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(r, tt.user, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}
