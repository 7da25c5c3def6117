package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/editing"
	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/operation"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/sampler"
	"github.com/inkpad/inkpad/internal/shape"
	"github.com/inkpad/inkpad/internal/typeid"
)

var (
	selectionColor = render.RGB(0x4a, 0x90, 0xd9)
	controlColor   = render.Color{R: 0x4a, G: 0x90, B: 0xd9, A: 0xc0}
)

// Options are the engine's starting user settings.
type Options struct {
	StrokeColor *render.Color
	FillColor   *render.Color
	StrokeWidth float64
	FontSize    float64
}

// DefaultOptions draws black 3-unit strokes with no fill and 24pt text.
func DefaultOptions() Options {
	black := render.Black
	return Options{StrokeColor: &black, StrokeWidth: 3, FontSize: shape.DefaultFontSize}
}

// Engine is the editing session: it owns the drawing, the operation
// history, the tools and the user settings. Commands come from the host's
// gesture recognisers; queries return JSON for the host to draw.
type Engine struct {
	doc   *drawing.Drawing
	ops   *operation.Stack
	ctx   *editing.Context
	tools *editing.Registry
	edit  *editing.EditTool
	user  *editing.UserSettings

	// Dirty flag - host should repaint
	dirty bool

	// OnCommit receives every operation that changed the drawing locally,
	// including the inverses produced by undo, for relaying to peers.
	OnCommit func(op operation.Operation)
}

// NewEngine creates an engine editing an empty drawing with the edit tool
// active.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		user: editing.NewUserSettings(shape.Settings{
			StrokeColor: opts.StrokeColor,
			FillColor:   opts.FillColor,
			StrokeWidth: opts.StrokeWidth,
			FontSize:    opts.FontSize,
		}),
	}
	e.reset(drawing.New(typeid.NewDrawingID(), "Untitled"))
	return e
}

// reset starts a fresh session on d, keeping the user settings and the
// active tool name.
func (e *Engine) reset(d *drawing.Drawing) {
	active := editing.EditToolName
	if e.tools != nil {
		if name := e.tools.ActiveName(); name != "" {
			active = name
		}
		if t := e.tools.Active(); t != nil {
			t.Deactivate(e.ctx)
		}
	}

	e.doc = d
	e.ops = operation.NewStack(d)
	e.ops.Subscribe(e.operationApplied)
	e.ctx = editing.NewContext(e.ops, e.user)
	e.tools = editing.NewRegistry(e.ctx)

	e.edit = editing.NewEditTool()
	e.tools.Register(e.edit)
	e.tools.Register(editing.NewPenTool())
	e.tools.Register(editing.NewRectTool())
	e.tools.Register(editing.NewEllipseTool())
	e.tools.Register(editing.NewLineTool())
	e.tools.Register(editing.NewTriangleTool())
	if err := e.tools.Activate(active); err != nil {
		_ = e.tools.Activate(editing.EditToolName)
	}
	e.dirty = true
}

func (e *Engine) operationApplied(op operation.Operation, ev operation.Event) {
	e.dirty = true
	e.syncSelection()
	if e.OnCommit == nil {
		return
	}
	switch ev {
	case operation.Applied:
		e.OnCommit(op)
	case operation.Undone:
		e.OnCommit(op.Inverse())
	case operation.Redone:
		e.OnCommit(op.Inverse().Inverse())
	}
}

// syncSelection drops a selection whose shape left the drawing and
// re-lays the overlay of one that stayed.
func (e *Engine) syncSelection() {
	ts := e.ctx.ToolSettings
	if ts.SelectedShape == nil {
		return
	}
	if e.doc.Index(ts.SelectedShape.ID()) < 0 {
		e.edit.DropSelection(e.ctx)
		return
	}
	if ts.Overlay != nil {
		ts.Overlay.Layout()
	}
}

// --- Commands (host → engine) ---

// LoadDrawing replaces the drawing with one decoded from JSON. History and
// selection are discarded.
func (e *Engine) LoadDrawing(jsonData string) error {
	d, err := drawing.Parse([]byte(jsonData))
	if err != nil {
		return fmt.Errorf("load drawing: %w", err)
	}
	e.reset(d)
	return nil
}

// LoadSampleDrawing loads the built-in sample drawing.
func (e *Engine) LoadSampleDrawing(id string) {
	e.reset(drawing.NewSample(id))
}

// NewDrawing starts an empty drawing.
func (e *Engine) NewDrawing(id, name string, width, height float64) {
	d := drawing.New(id, name)
	if width > 0 {
		d.Width = width
	}
	if height > 0 {
		d.Height = height
	}
	e.reset(d)
}

// SetTool activates a tool by name.
func (e *Engine) SetTool(name string) error {
	if err := e.tools.Activate(name); err != nil {
		return err
	}
	e.dirty = true
	return nil
}

func (e *Engine) Tap(x, y float64) {
	e.dispatch(func(t editing.Tool) { t.Tap(e.ctx, geom.Pt(x, y)) })
}

func (e *Engine) DragStart(x, y float64) {
	e.dispatch(func(t editing.Tool) { t.DragStart(e.ctx, geom.Pt(x, y)) })
}

func (e *Engine) DragContinue(x, y float64) {
	e.dispatch(func(t editing.Tool) { t.DragContinue(e.ctx, geom.Pt(x, y)) })
}

func (e *Engine) DragEnd(x, y float64) {
	e.dispatch(func(t editing.Tool) { t.DragEnd(e.ctx, geom.Pt(x, y)) })
}

func (e *Engine) DragCancel(x, y float64) {
	e.dispatch(func(t editing.Tool) { t.DragCancel(e.ctx, geom.Pt(x, y)) })
}

func (e *Engine) dispatch(f func(editing.Tool)) {
	t := e.tools.Active()
	if t == nil {
		return
	}
	f(t)
	e.collectDirty()
}

func (e *Engine) collectDirty() {
	if e.ctx.ToolSettings.TakeDirty() {
		e.dirty = true
	}
}

// Undo reverts the last local operation.
func (e *Engine) Undo() bool {
	return e.ops.Undo()
}

// Redo re-applies the last undone operation.
func (e *Engine) Redo() bool {
	return e.ops.Redo()
}

// SetStrokeColor sets the stroke colour from a hex or named colour; an
// empty string means no stroke.
func (e *Engine) SetStrokeColor(color string) error {
	c, err := parseOptionalColor(color)
	if err != nil {
		return err
	}
	e.user.SetStrokeColor(c)
	e.collectDirty()
	return nil
}

// SetFillColor sets the fill colour; an empty string means no fill.
func (e *Engine) SetFillColor(color string) error {
	c, err := parseOptionalColor(color)
	if err != nil {
		return err
	}
	e.user.SetFillColor(c)
	e.collectDirty()
	return nil
}

func (e *Engine) SetStrokeWidth(w float64) {
	e.user.SetStrokeWidth(w)
	e.collectDirty()
}

func (e *Engine) SetFontSize(size float64) {
	e.user.SetFontSize(size)
	e.collectDirty()
}

func parseOptionalColor(s string) (*render.Color, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	c, err := render.ParseColor(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AddText places a text shape centred on (x, y) with the current settings.
// It returns the new shape's id.
func (e *Engine) AddText(text string, x, y float64) string {
	s := shape.NewText(text, e.user.Settings().FontSize)
	s.ApplySettings(e.user.Settings())
	s.SetTransform(shape.IdentityTransform().Translated(geom.Pt(x, y)))
	e.ops.Apply(operation.NewAddShape(s, -1))
	return s.ID()
}

// DeleteSelection removes the selected shape, if any.
func (e *Engine) DeleteSelection() {
	sel := e.ctx.ToolSettings.SelectedShape
	if sel == nil {
		return
	}
	index := e.doc.Index(sel.ID())
	e.edit.Select(e.ctx, nil)
	e.ops.Apply(operation.NewRemoveShape(sel, index))
	e.collectDirty()
}

// ApplyRemote applies an operation record from a collaborator. It is not
// added to the local undo history and is not reported through OnCommit.
func (e *Engine) ApplyRemote(recordJSON string) error {
	var rec operation.Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return fmt.Errorf("apply remote: %w", err)
	}
	op, err := operation.FromRecord(rec)
	if err != nil {
		return fmt.Errorf("apply remote: %w", err)
	}
	if err := operation.Validate(e.doc, op); err != nil {
		return fmt.Errorf("apply remote: %w", err)
	}
	op.Apply(e.doc)
	e.syncSelection()
	e.dirty = true
	return nil
}

// --- Queries (engine → host) ---

// Render returns the drawing, the shape being created and the selection
// chrome as draw commands JSON, and clears the dirty flag.
func (e *Engine) Render() string {
	rec := render.NewRecorder()
	e.doc.Render(rec)

	ts := e.ctx.ToolSettings
	if ts.Preview != nil {
		rec.SetObjectID("")
		ts.Preview.Render(rec)
	}
	if sel := ts.SelectedShape; sel != nil && ts.Overlay != nil {
		renderOverlay(rec, sel.Transform(), ts.Overlay)
	}

	e.dirty = false
	result, _ := render.DrawCommandsToJSON(rec.Commands())
	return result
}

func renderOverlay(rec *render.Recorder, t shape.Transform, o *editing.Overlay) {
	rec.SetObjectID("")
	t.Begin(rec)
	defer t.End(rec)

	rec.SetStrokeColor(selectionColor)
	rec.SetLineWidth(1)
	rec.SetLineDash(0, []float64{4, 4})
	rec.AddPath(geom.NewRectPath(o.Frame))
	rec.StrokePath()
	rec.SetLineDash(0, nil)

	rec.SetFillColor(controlColor)
	for _, c := range o.Controls {
		rec.SetObjectID("overlay:" + c.Action.String())
		rec.AddPath(geom.NewEllipsePath(c.Frame))
		rec.FillPath()
	}
	rec.SetObjectID("")
}

// HitTest returns the id of the topmost shape at (x, y), or "".
func (e *Engine) HitTest(x, y float64) string {
	return e.doc.HitTest(geom.Pt(x, y))
}

// Selection returns the selected shape id, or "".
func (e *Engine) Selection() string {
	if sel := e.ctx.ToolSettings.SelectedShape; sel != nil {
		return sel.ID()
	}
	return ""
}

// SelectionBounds returns the drawing-space bounds of the selection as JSON.
func (e *Engine) SelectionBounds() string {
	var r geom.Rect
	if sel := e.ctx.ToolSettings.SelectedShape; sel != nil {
		r = sel.Transform().ApplyRect(sel.BoundingRect())
	}
	data, _ := json.Marshal(r)
	return string(data)
}

// SamplePoints returns outline samples of a shape as a JSON point array.
func (e *Engine) SamplePoints(id string) string {
	s, ok := e.doc.Shape(id)
	if !ok {
		return "[]"
	}
	pts := sampler.Sample(s)
	if pts == nil {
		pts = []geom.Point{}
	}
	data, _ := json.Marshal(pts)
	return string(data)
}

// State describes the session for the host's toolbar.
type State struct {
	Tool      string  `json:"tool"`
	Mode      string  `json:"mode"`
	Drag      string  `json:"drag,omitempty"`
	Selection string  `json:"selection,omitempty"`
	CanUndo   bool    `json:"canUndo"`
	CanRedo   bool    `json:"canRedo"`
	Dirty     bool    `json:"dirty"`
	Stroke    string  `json:"strokeColor,omitempty"`
	Fill      string  `json:"fillColor,omitempty"`
	Width     float64 `json:"strokeWidth"`
	FontSize  float64 `json:"fontSize"`
}

// Snapshot returns the session state.
func (e *Engine) Snapshot() State {
	st := State{
		Tool:      e.tools.ActiveName(),
		Mode:      editing.StateIdle.String(),
		Selection: e.Selection(),
		CanUndo:   e.ops.CanUndo(),
		CanRedo:   e.ops.CanRedo(),
		Dirty:     e.dirty,
	}
	if st.Tool == editing.EditToolName {
		mode, drag := e.edit.State(e.ctx)
		st.Mode = mode.String()
		if drag != editing.DragNone {
			st.Drag = drag.String()
		}
	}
	s := e.user.Settings()
	if s.StrokeColor != nil {
		st.Stroke = s.StrokeColor.Hex()
	}
	if s.FillColor != nil {
		st.Fill = s.FillColor.Hex()
	}
	st.Width, st.FontSize = s.StrokeWidth, s.FontSize
	return st
}

// State returns Snapshot as JSON.
func (e *Engine) State() string {
	data, _ := json.Marshal(e.Snapshot())
	return string(data)
}

// Document returns the drawing as JSON.
func (e *Engine) Document() string {
	data, err := json.Marshal(e.doc)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Drawing returns the drawing being edited.
func (e *Engine) Drawing() *drawing.Drawing {
	return e.doc
}

// IsDirty reports whether the host should repaint.
func (e *Engine) IsDirty() bool {
	return e.dirty
}
