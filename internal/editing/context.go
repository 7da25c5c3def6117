// Package editing implements the pointer tools that create and edit
// shapes, and the drag handlers the edit tool dispatches to.
package editing

import (
	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/operation"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/shape"
)

// Context is everything a tool may touch while handling a gesture.
type Context struct {
	Drawing      *drawing.Drawing
	Operations   *operation.Stack
	ToolSettings *ToolSettings
	UserSettings *UserSettings
}

// NewContext wires a context around an operation stack.
func NewContext(ops *operation.Stack, user *UserSettings) *Context {
	return &Context{
		Drawing:      ops.Drawing(),
		Operations:   ops,
		ToolSettings: &ToolSettings{},
		UserSettings: user,
	}
}

// ToolSettings is state shared between tools and the host.
type ToolSettings struct {
	SelectedShape shape.Selectable
	Overlay       *Overlay

	// Preview is the shape a creation tool is dragging out, not yet part
	// of the drawing.
	Preview shape.Shape

	// IsPersistentBufferDirty tells the host to repaint the drawing.
	IsPersistentBufferDirty bool
}

func (ts *ToolSettings) MarkDirty() {
	ts.IsPersistentBufferDirty = true
}

// TakeDirty returns and clears the dirty flag.
func (ts *ToolSettings) TakeDirty() bool {
	d := ts.IsPersistentBufferDirty
	ts.IsPersistentBufferDirty = false
	return d
}

// UserSettings are the ambient paint choices. Every change is forwarded to
// the OnChange callback, which the registry points at the active tool.
type UserSettings struct {
	settings shape.Settings
	OnChange func(shape.Settings)
}

func NewUserSettings(initial shape.Settings) *UserSettings {
	return &UserSettings{settings: cloneSettings(initial)}
}

// Settings returns a copy of the current settings.
func (u *UserSettings) Settings() shape.Settings {
	return cloneSettings(u.settings)
}

func (u *UserSettings) SetStrokeColor(c *render.Color) {
	u.settings.StrokeColor = cloneColor(c)
	u.changed()
}

func (u *UserSettings) SetFillColor(c *render.Color) {
	u.settings.FillColor = cloneColor(c)
	u.changed()
}

func (u *UserSettings) SetStrokeWidth(w float64) {
	u.settings.StrokeWidth = max(w, 0)
	u.changed()
}

func (u *UserSettings) SetFontSize(size float64) {
	if size > 0 {
		u.settings.FontSize = size
	}
	u.changed()
}

// Set replaces all settings at once with a single notification.
func (u *UserSettings) Set(s shape.Settings) {
	u.settings = cloneSettings(s)
	u.changed()
}

func (u *UserSettings) changed() {
	if u.OnChange != nil {
		u.OnChange(u.Settings())
	}
}

func cloneColor(c *render.Color) *render.Color {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func cloneSettings(s shape.Settings) shape.Settings {
	s.StrokeColor = cloneColor(s.StrokeColor)
	s.FillColor = cloneColor(s.FillColor)
	return s
}
