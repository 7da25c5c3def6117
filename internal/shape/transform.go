package shape

import (
	"math"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

// Transform places a shape: scale first, then rotation about the origin,
// then translation. Values are copied, never shared.
type Transform struct {
	Translation geom.Point `json:"translation"`
	Rotation    float64    `json:"rotation"`
	Scale       float64    `json:"scale"`
}

// IdentityTransform has no translation or rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// Translated returns t moved by d.
func (t Transform) Translated(d geom.Point) Transform {
	t.Translation = t.Translation.Add(d)
	return t
}

// Rotated returns t rotated by r radians.
func (t Transform) Rotated(r float64) Transform {
	t.Rotation += r
	return t
}

// Scaled returns t with its scale multiplied by f.
func (t Transform) Scaled(f float64) Transform {
	t.Scale *= f
	return t
}

// Matrix returns Translate * Rotate * Scale.
func (t Transform) Matrix() geom.Matrix {
	return geom.Translate(t.Translation.X, t.Translation.Y).
		Multiply(geom.Rotate(t.Rotation)).
		Multiply(geom.Scale(t.Scale, t.Scale))
}

// Apply maps a shape-local point to drawing space.
func (t Transform) Apply(p geom.Point) geom.Point {
	return t.Matrix().TransformPoint(p)
}

// Inverse maps a drawing-space point to shape-local space.
func (t Transform) Inverse(p geom.Point) geom.Point {
	return t.Matrix().Invert().TransformPoint(p)
}

// ApplyRect returns the drawing-space bounding box of a local rect.
func (t Transform) ApplyRect(r geom.Rect) geom.Rect {
	return r.Applying(t.Matrix())
}

func (t Transform) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(t.Translation.X) < eps && math.Abs(t.Translation.Y) < eps &&
		math.Abs(t.Rotation) < eps && math.Abs(t.Scale-1) < eps
}

// Begin saves ctx state and concatenates the transform.
func (t Transform) Begin(ctx render.Context) {
	ctx.SaveState()
	ctx.Concat(t.Matrix())
}

// End restores the state saved by Begin.
func (t Transform) End(ctx render.Context) {
	ctx.RestoreState()
}
