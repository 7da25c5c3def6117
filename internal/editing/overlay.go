package editing

import (
	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/shape"
)

// Action is what a selection control does.
type Action int

const (
	ActionNone Action = iota
	ActionDelete
	ActionResizeAndRotate
	ActionChangeWidth
)

func (a Action) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	case ActionResizeAndRotate:
		return "resizeAndRotate"
	case ActionChangeWidth:
		return "changeWidth"
	default:
		return "none"
	}
}

// ControlSize is the side of each square control.
const ControlSize = 36

// Control is a tappable square next to the selection frame, in the
// selected shape's local space.
type Control struct {
	Action Action
	Frame  geom.Rect
}

// StandardControls lays out the delete, resize-and-rotate and change-width
// controls around a selection frame.
func StandardControls(sel geom.Rect) []Control {
	return []Control{
		{
			Action: ActionDelete,
			Frame:  geom.Rect{X: sel.MinX() - ControlSize, Y: sel.MinY() - 3 - ControlSize, Width: ControlSize, Height: ControlSize},
		},
		{
			Action: ActionResizeAndRotate,
			Frame:  geom.Rect{X: sel.MaxX() + 5, Y: sel.MaxY() + 4, Width: ControlSize, Height: ControlSize},
		},
		{
			Action: ActionChangeWidth,
			Frame:  geom.Rect{X: sel.MaxX() + 5, Y: sel.MinY() - 4 - ControlSize, Width: ControlSize, Height: ControlSize},
		},
	}
}

// Overlay is the set of controls drawn around the selected shape. It
// follows the shape's current transform.
type Overlay struct {
	Frame    geom.Rect
	Controls []Control
	target   shape.Selectable
}

// NewOverlay lays out the standard controls around s.
func NewOverlay(s shape.Selectable) *Overlay {
	o := &Overlay{target: s}
	o.Layout()
	return o
}

// Layout recomputes the frame and controls from the target's bounds.
func (o *Overlay) Layout() {
	if o.target == nil {
		return
	}
	o.Frame = o.target.BoundingRect()
	o.Controls = StandardControls(o.Frame)
}

// Transform is the target's current transform.
func (o *Overlay) Transform() shape.Transform {
	if o == nil || o.target == nil {
		return shape.IdentityTransform()
	}
	return o.target.Transform()
}

// ActionAt maps p into the target's local space and returns the action of
// the first control containing it.
func (o *Overlay) ActionAt(p geom.Point) Action {
	if o == nil || o.target == nil {
		return ActionNone
	}
	local := o.target.Transform().Inverse(p)
	for _, c := range o.Controls {
		if c.Frame.Contains(local) {
			return c.Action
		}
	}
	return ActionNone
}
