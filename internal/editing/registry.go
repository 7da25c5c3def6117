package editing

import (
	"errors"
	"fmt"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/shape"
)

var ErrUnknownTool = errors.New("unknown tool")

// Tool receives pointer gestures while it is the active tool.
type Tool interface {
	Name() string
	Activate(ctx *Context)
	Deactivate(ctx *Context)

	Tap(ctx *Context, p geom.Point)
	DragStart(ctx *Context, p geom.Point)
	DragContinue(ctx *Context, p geom.Point)
	DragEnd(ctx *Context, p geom.Point)
	DragCancel(ctx *Context, p geom.Point)

	// SettingsChanged is called whenever the user settings change.
	SettingsChanged(ctx *Context, s shape.Settings)
}

// bindable tools want a handle to themselves.
type bindable interface {
	Bind(h ToolHandle)
}

// Registry owns the tools and tracks which one is active.
type Registry struct {
	ctx    *Context
	tools  map[string]Tool
	active string
}

// NewRegistry routes user settings changes on ctx to the active tool.
func NewRegistry(ctx *Context) *Registry {
	r := &Registry{ctx: ctx, tools: make(map[string]Tool)}
	ctx.UserSettings.OnChange = func(s shape.Settings) {
		if t := r.Active(); t != nil {
			t.SettingsChanged(r.ctx, s)
		}
	}
	return r
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
	if b, ok := t.(bindable); ok {
		b.Bind(ToolHandle{registry: r, name: t.Name(), tool: t})
	}
}

// Unregister removes a tool; outstanding handles stop resolving.
func (r *Registry) Unregister(name string) {
	t, ok := r.tools[name]
	if !ok {
		return
	}
	if r.active == name {
		t.Deactivate(r.ctx)
		r.active = ""
	}
	delete(r.tools, name)
}

// Activate deactivates the current tool and activates name.
func (r *Registry) Activate(name string) error {
	next, ok := r.tools[name]
	if !ok {
		return fmt.Errorf("activate %q: %w", name, ErrUnknownTool)
	}
	if cur := r.Active(); cur != nil {
		if r.active == name {
			return nil
		}
		cur.Deactivate(r.ctx)
	}
	r.active = name
	next.Activate(r.ctx)
	return nil
}

// Active returns the active tool, or nil.
func (r *Registry) Active() Tool {
	return r.tools[r.active]
}

func (r *Registry) ActiveName() string { return r.active }

// Tool looks a tool up by name.
func (r *Registry) Tool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Context returns the context tools are driven with.
func (r *Registry) Context() *Context { return r.ctx }

// ToolHandle is a non-owning reference to a registered tool.
type ToolHandle struct {
	registry *Registry
	name     string
	tool     Tool
}

// Resolve returns the tool if it is still registered under its name.
func (h ToolHandle) Resolve() (Tool, bool) {
	if h.registry == nil {
		return nil, false
	}
	t, ok := h.registry.tools[h.name]
	if !ok || t != h.tool {
		return nil, false
	}
	return t, true
}
