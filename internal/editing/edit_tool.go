package editing

import (
	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/operation"
	"github.com/inkpad/inkpad/internal/shape"
)

// EditToolName is the registry name of the edit tool.
const EditToolName = "edit"

// State is where the edit tool is in a gesture.
type State int

const (
	StateIdle State = iota
	StateShapeSelected
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateShapeSelected:
		return "shapeSelected"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// EditTool selects, moves, resizes, rotates and deletes shapes.
type EditTool struct {
	// TappedSelectedShape, when set, receives taps on the already selected
	// shape instead of deselecting it.
	TappedSelectedShape func(ctx *Context, s shape.Selectable, p geom.Point)

	handle  ToolHandle
	handler DragHandler

	// isUpdatingSelection is set while the selection pushes its style into
	// the user settings, so the echo is not applied back to the shape.
	isUpdatingSelection bool
}

func NewEditTool() *EditTool {
	return &EditTool{}
}

func (t *EditTool) Name() string         { return EditToolName }
func (t *EditTool) Bind(h ToolHandle)    { t.handle = h }
func (t *EditTool) Activate(*Context)    {}
func (t *EditTool) Handler() DragHandler { return t.handler }

// State reports the current state and, when dragging, the drag kind.
func (t *EditTool) State(ctx *Context) (State, DragKind) {
	switch {
	case t.handler != nil:
		return StateDragging, t.handler.Kind()
	case ctx.ToolSettings.SelectedShape != nil:
		return StateShapeSelected, DragNone
	default:
		return StateIdle, DragNone
	}
}

func (t *EditTool) Deactivate(ctx *Context) {
	if t.handler != nil {
		t.handler.Cancel(ctx, geom.Point{})
		t.handler = nil
	}
	t.Select(ctx, nil)
}

func (t *EditTool) Tap(ctx *Context, p geom.Point) {
	if sel := ctx.ToolSettings.SelectedShape; sel != nil {
		if ctx.ToolSettings.Overlay.ActionAt(p) == ActionDelete {
			index := ctx.Drawing.Index(sel.ID())
			t.Select(ctx, nil)
			ctx.Operations.Apply(operation.NewRemoveShape(sel, index))
			return
		}
		if sel.HitTest(p) {
			if t.TappedSelectedShape != nil {
				t.TappedSelectedShape(ctx, sel, p)
			} else {
				t.Select(ctx, nil)
			}
			return
		}
	}

	t.Select(ctx, nil)
	if s, ok := ctx.Drawing.SelectableAt(p); ok {
		t.Select(ctx, s)
	}
}

func (t *EditTool) DragStart(ctx *Context, p geom.Point) {
	sel := ctx.ToolSettings.SelectedShape
	if sel == nil {
		return
	}

	var h DragHandler
	switch ctx.ToolSettings.Overlay.ActionAt(p) {
	case ActionResizeAndRotate:
		h = NewResizeAndRotateHandler(sel, t.handle)
	case ActionChangeWidth:
		h = NewChangeWidthHandler(sel, t.handle)
	default:
		if sel.HitTest(p) {
			h = NewMoveHandler(sel, t.handle)
		}
	}
	if h != nil {
		h.Start(ctx, p)
		t.handler = h
	}
}

// DragContinue starts a control handler late when the drag began off the
// selection and has since reached a resize or width control.
func (t *EditTool) DragContinue(ctx *Context, p geom.Point) {
	if t.handler == nil {
		sel := ctx.ToolSettings.SelectedShape
		if sel == nil {
			return
		}
		switch ctx.ToolSettings.Overlay.ActionAt(p) {
		case ActionResizeAndRotate:
			t.handler = NewResizeAndRotateHandler(sel, t.handle)
		case ActionChangeWidth:
			t.handler = NewChangeWidthHandler(sel, t.handle)
		default:
			return
		}
		t.handler.Start(ctx, p)
	}
	t.handler.Continue(ctx, p)
}

func (t *EditTool) DragEnd(ctx *Context, p geom.Point) {
	if t.handler == nil {
		return
	}
	t.handler.End(ctx, p)
	t.handler = nil
}

func (t *EditTool) DragCancel(ctx *Context, p geom.Point) {
	if t.handler == nil {
		return
	}
	t.handler.Cancel(ctx, p)
	t.handler = nil
}

// SettingsChanged restyles the selected shape, committing a ChangeStyle
// when its paint actually changes.
func (t *EditTool) SettingsChanged(ctx *Context, s shape.Settings) {
	sel := ctx.ToolSettings.SelectedShape
	if t.isUpdatingSelection || sel == nil {
		return
	}

	styled, ok := sel.(shape.Styled)
	if !ok {
		sel.ApplySettings(s)
		ctx.ToolSettings.MarkDirty()
		return
	}
	before := styled.Style()
	sel.ApplySettings(s)
	after := styled.Style()
	if !after.Equal(before) {
		styled.SetStyle(before)
		ctx.Operations.Apply(operation.NewChangeStyle(sel.ID(), after, before))
	}
	t.UpdateOverlay(ctx)
	ctx.ToolSettings.MarkDirty()
}

// Select makes s the selection, or clears it when s is nil. A new
// selection pushes the settings it owns into the user settings.
func (t *EditTool) Select(ctx *Context, s shape.Selectable) {
	ts := ctx.ToolSettings
	ts.SelectedShape = s
	ts.Overlay = nil
	ts.MarkDirty()
	if s == nil {
		return
	}
	ts.Overlay = NewOverlay(s)

	settings := ctx.UserSettings.Settings()
	if owner, ok := s.(shape.SettingsOwner); ok {
		settings = owner.OwnSettings(settings)
	}

	t.isUpdatingSelection = true
	ctx.UserSettings.Set(settings)
	t.isUpdatingSelection = false
}

// DropSelection forgets the selection and any drag on it without
// committing, for when the shape has already left the drawing.
func (t *EditTool) DropSelection(ctx *Context) {
	t.handler = nil
	t.Select(ctx, nil)
}

// UpdateOverlay re-lays the controls after the selection's bounds change.
func (t *EditTool) UpdateOverlay(ctx *Context) {
	if o := ctx.ToolSettings.Overlay; o != nil {
		o.Layout()
	}
}
