package editing

import (
	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/operation"
	"github.com/inkpad/inkpad/internal/shape"
)

// DragKind names what a drag is doing to the selection.
type DragKind int

const (
	DragNone DragKind = iota
	DragMove
	DragResizeAndRotate
	DragChangeWidth
)

func (k DragKind) String() string {
	switch k {
	case DragMove:
		return "move"
	case DragResizeAndRotate:
		return "resizeAndRotate"
	case DragChangeWidth:
		return "changeWidth"
	default:
		return "none"
	}
}

// minVector is the shortest pivot vector a resize will divide by.
const minVector = 1e-6

// DragHandler carries one drag gesture on one shape.
type DragHandler interface {
	Kind() DragKind
	Start(ctx *Context, p geom.Point)
	Continue(ctx *Context, p geom.Point)
	End(ctx *Context, p geom.Point)
	Cancel(ctx *Context, p geom.Point)
}

// overlayUpdater is implemented by tools that keep an overlay around the
// selection.
type overlayUpdater interface {
	UpdateOverlay(ctx *Context)
}

type handlerBase struct {
	shape shape.Selectable
	tool  ToolHandle
	start geom.Point
}

func (h *handlerBase) Start(_ *Context, p geom.Point) {
	h.start = p
}

// changed marks the buffer dirty and lets the owning tool, if it still
// exists, refresh its overlay.
func (h *handlerBase) changed(ctx *Context) {
	ctx.ToolSettings.MarkDirty()
	if t, ok := h.tool.Resolve(); ok {
		if u, ok := t.(overlayUpdater); ok {
			u.UpdateOverlay(ctx)
		}
	}
}

// transformHandler is shared by drags that end in a ChangeTransform.
type transformHandler struct {
	handlerBase
	original shape.Transform
}

// commit records the drag as one ChangeTransform. Nothing is recorded when
// the shape has left the drawing mid-drag.
func (h *transformHandler) commit(ctx *Context, final shape.Transform) {
	h.shape.SetTransform(h.original)
	if ctx.Drawing.Index(h.shape.ID()) < 0 {
		h.changed(ctx)
		return
	}
	ctx.Operations.Apply(operation.NewChangeTransform(h.shape.ID(), final, h.original))
	h.changed(ctx)
}

func (h *transformHandler) Cancel(ctx *Context, _ geom.Point) {
	h.shape.SetTransform(h.original)
	h.changed(ctx)
}

// MoveHandler translates the shape by the drag distance.
type MoveHandler struct {
	transformHandler
}

func NewMoveHandler(s shape.Selectable, tool ToolHandle) *MoveHandler {
	return &MoveHandler{transformHandler{handlerBase: handlerBase{shape: s, tool: tool}, original: s.Transform()}}
}

func (h *MoveHandler) Kind() DragKind { return DragMove }

func (h *MoveHandler) transformFor(p geom.Point) shape.Transform {
	return h.original.Translated(p.Sub(h.start))
}

func (h *MoveHandler) Continue(ctx *Context, p geom.Point) {
	h.shape.SetTransform(h.transformFor(p))
	h.changed(ctx)
}

func (h *MoveHandler) End(ctx *Context, p geom.Point) {
	h.commit(ctx, h.transformFor(p))
}

// ResizeAndRotateHandler scales and rotates the shape about its
// translation, following the pointer's distance and angle from it.
type ResizeAndRotateHandler struct {
	transformHandler
}

func NewResizeAndRotateHandler(s shape.Selectable, tool ToolHandle) *ResizeAndRotateHandler {
	return &ResizeAndRotateHandler{transformHandler{handlerBase: handlerBase{shape: s, tool: tool}, original: s.Transform()}}
}

func (h *ResizeAndRotateHandler) Kind() DragKind { return DragResizeAndRotate }

// transformFor returns the original transform when either vector from the
// pivot is too short to measure.
func (h *ResizeAndRotateHandler) transformFor(p geom.Point) shape.Transform {
	pivot := h.original.Translation
	ov := h.start.Sub(pivot)
	cv := p.Sub(pivot)
	if ov.Length() < minVector || cv.Length() < minVector {
		return h.original
	}
	scale := cv.Length() / ov.Length()
	return h.original.Scaled(scale).Rotated(cv.Angle() - ov.Angle())
}

func (h *ResizeAndRotateHandler) Continue(ctx *Context, p geom.Point) {
	h.shape.SetTransform(h.transformFor(p))
	h.changed(ctx)
}

func (h *ResizeAndRotateHandler) End(ctx *Context, p geom.Point) {
	h.commit(ctx, h.transformFor(p))
}

// ChangeWidthHandler captures the bounding width and frame at the start of
// a width drag. It does not change geometry.
type ChangeWidthHandler struct {
	handlerBase
	OriginalWidth float64
	OriginalFrame geom.Rect
}

func NewChangeWidthHandler(s shape.Selectable, tool ToolHandle) *ChangeWidthHandler {
	frame := s.BoundingRect()
	return &ChangeWidthHandler{
		handlerBase:   handlerBase{shape: s, tool: tool},
		OriginalWidth: frame.Width,
		OriginalFrame: frame,
	}
}

func (h *ChangeWidthHandler) Kind() DragKind { return DragChangeWidth }

func (h *ChangeWidthHandler) Continue(*Context, geom.Point) {}
func (h *ChangeWidthHandler) End(*Context, geom.Point)      {}
func (h *ChangeWidthHandler) Cancel(*Context, geom.Point)   {}
