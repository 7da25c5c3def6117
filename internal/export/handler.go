// Package export renders saved drawings to PNG or PDF downloads.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inkpad/inkpad/internal/auth"
	"github.com/inkpad/inkpad/internal/board"
	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/render/pdf"
	"github.com/inkpad/inkpad/internal/render/raster"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrTooLarge          = errors.New("drawing too large to export")
)

// Source returns the newest saved drawing a user may read.
type Source interface {
	LatestDrawing(ctx context.Context, drawingID, userID string) (json.RawMessage, error)
}

type Handler struct {
	source    Source
	maxPixels int
}

// NewHandler returns a handler that refuses raster exports above
// maxPixels pixels.
func NewHandler(source Source, maxPixels int) *Handler {
	return &Handler{source: source, maxPixels: maxPixels}
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	drawingID := mux.Vars(r)["drawingId"]

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}

	data, err := h.source.LatestDrawing(r.Context(), drawingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrNotMember):
			http.Error(w, "not a drawing member", http.StatusForbidden)
		case errors.Is(err, board.ErrNotFound):
			http.Error(w, "drawing not found", http.StatusNotFound)
		default:
			slog.Error("load drawing for export", "error", err, "drawing", drawingID)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	d, err := drawing.Parse(data)
	if err != nil {
		slog.Error("parse drawing for export", "error", err, "drawing", drawingID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	contentType, err := h.encode(&buf, d, format)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			http.Error(w, "invalid format: must be png or pdf", http.StatusBadRequest)
		case errors.Is(err, ErrTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		default:
			slog.Error("export drawing", "error", err, "drawing", drawingID, "format", format)
			http.Error(w, "export failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, filename(d.Name), format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) encode(buf *bytes.Buffer, d *drawing.Drawing, format string) (string, error) {
	switch format {
	case "png":
		wpx, hpx := int(math.Ceil(d.Width)), int(math.Ceil(d.Height))
		if wpx <= 0 || hpx <= 0 || wpx*hpx > h.maxPixels {
			return "", fmt.Errorf("export %dx%d: %w", wpx, hpx, ErrTooLarge)
		}
		c := raster.New(wpx, hpx, render.White)
		d.Render(c)
		if err := png.Encode(buf, c.Image()); err != nil {
			return "", fmt.Errorf("encode png: %w", err)
		}
		return "image/png", nil

	case "pdf":
		doc := pdf.New(d.Width, d.Height)
		d.Render(doc)
		if err := doc.Output(buf); err != nil {
			return "", err
		}
		return "application/pdf", nil

	default:
		return "", fmt.Errorf("export %q: %w", format, ErrUnsupportedFormat)
	}
}

// filename keeps letters, digits, dashes and underscores.
func filename(name string) string {
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.TrimSpace(name))
	if strings.Trim(name, "-") == "" {
		return "drawing"
	}
	return name
}
