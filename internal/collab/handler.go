package collab

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inkpad/inkpad/internal/auth"
	"github.com/inkpad/inkpad/internal/typeid"
)

// Authenticator resolves websocket tokens to users.
type Authenticator interface {
	ValidateToken(token string) (string, error)
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

// MembershipChecker reports whether a user may join a drawing's room.
type MembershipChecker interface {
	CheckMembership(ctx context.Context, drawingID, userID string) error
}

// Handler upgrades /ws/drawing/{drawingId} requests and attaches the
// connection to the hub.
type Handler struct {
	hub            *Hub
	auth           Authenticator
	members        MembershipChecker
	originPatterns []string
}

func NewHandler(hub *Hub, a Authenticator, m MembershipChecker, allowedOrigins []string) *Handler {
	return &Handler{hub: hub, auth: a, members: m, originPatterns: originPatterns(allowedOrigins)}
}

// originPatterns turns allowed origins into the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	drawingID := mux.Vars(r)["drawingId"]

	var userID, displayName string

	if drawingID == PlaygroundDrawingID {
		// Anonymous user for playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param, browsers cannot set headers on websockets
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := h.members.CheckMembership(r.Context(), drawingID, userID); err != nil {
			http.Error(w, "not a drawing member", http.StatusForbidden)
			return
		}

		user, err := h.auth.GetUser(r.Context(), userID)
		if err != nil {
			slog.Error("get user", "error", err, "user", userID)
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, displayName, drawingID, typeid.NewClientID())
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
