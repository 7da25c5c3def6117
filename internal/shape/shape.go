// Package shape holds the drawable shape variants and their capabilities.
package shape

import (
	"encoding/json"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/typeid"
)

// Kind identifies a shape variant.
type Kind string

const (
	KindBezier   Kind = "bezier"
	KindRect     Kind = "rect"
	KindEllipse  Kind = "ellipse"
	KindLine     Kind = "line"
	KindTriangle Kind = "triangle"
	KindText     Kind = "text"
)

var typeTags = map[Kind]string{
	KindBezier:   "BezierShape",
	KindRect:     "RectShape",
	KindEllipse:  "EllipseShape",
	KindLine:     "LineShape",
	KindTriangle: "TriangleShape",
	KindText:     "TextShape",
}

// TypeTag returns the serialised type name of the kind.
func (k Kind) TypeTag() string {
	return typeTags[k]
}

// Shape is anything that can live in a drawing.
type Shape interface {
	ID() string
	Kind() Kind
	Render(ctx render.Context)
	HitTest(p geom.Point) bool
	ApplySettings(s Settings)
	json.Marshaler
	json.Unmarshaler
}

// Bounded shapes report a shape-local bounding rect, stroke included.
type Bounded interface {
	BoundingRect() geom.Rect
}

type Transformable interface {
	Transform() Transform
	SetTransform(t Transform)
}

// Selectable shapes can be picked, moved, resized and rotated by the edit
// tool.
type Selectable interface {
	Shape
	Bounded
	Transformable
}

// PathBacked shapes expose their outline in drawing space.
type PathBacked interface {
	Path() geom.Path
}

// PointSettable shapes are defined by a drag from one point to another.
type PointSettable interface {
	SetPoints(a, b geom.Point)
}

type Styled interface {
	Style() Style
	SetStyle(s Style)
}

// SettingsOwner reports the settings a shape takes from ApplySettings,
// written over s. Fields the shape ignores are left as they are.
type SettingsOwner interface {
	OwnSettings(s Settings) Settings
}

// Style is the paint of a shape. Nil colours are not painted.
type Style struct {
	StrokeColor *render.Color `json:"strokeColor"`
	FillColor   *render.Color `json:"fillColor"`
	StrokeWidth float64       `json:"strokeWidth"`
}

// Clone returns a copy that shares no colour pointers with s.
func (s Style) Clone() Style {
	return Style{
		StrokeColor: cloneColor(s.StrokeColor),
		FillColor:   cloneColor(s.FillColor),
		StrokeWidth: s.StrokeWidth,
	}
}

// Equal compares colours by value.
func (s Style) Equal(o Style) bool {
	return colorEqual(s.StrokeColor, o.StrokeColor) &&
		colorEqual(s.FillColor, o.FillColor) &&
		s.StrokeWidth == o.StrokeWidth
}

// Settings are the ambient user choices applied to new or selected shapes.
type Settings struct {
	StrokeColor *render.Color
	FillColor   *render.Color
	StrokeWidth float64
	FontSize    float64
}

// DefaultStyle is what constructors give a shape before settings apply.
func DefaultStyle() Style {
	black := render.Black
	return Style{StrokeColor: &black, StrokeWidth: 1}
}

func cloneColor(c *render.Color) *render.Color {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func colorEqual(a, b *render.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// base carries what every variant shares.
type base struct {
	id        string
	transform Transform
	style     Style
}

func newBase() base {
	return base{
		id:        typeid.NewShapeID(),
		transform: IdentityTransform(),
		style:     DefaultStyle(),
	}
}

func (b *base) ID() string               { return b.id }
func (b *base) Transform() Transform     { return b.transform }
func (b *base) SetTransform(t Transform) { b.transform = t }
func (b *base) Style() Style             { return b.style.Clone() }
func (b *base) SetStyle(s Style)         { b.style = s.Clone() }

// ApplySettings copies stroke colour, fill colour and stroke width.
func (b *base) ApplySettings(s Settings) {
	b.style = Style{
		StrokeColor: cloneColor(s.StrokeColor),
		FillColor:   cloneColor(s.FillColor),
		StrokeWidth: s.StrokeWidth,
	}
}

func (b *base) OwnSettings(s Settings) Settings {
	s.StrokeColor = cloneColor(b.style.StrokeColor)
	s.FillColor = cloneColor(b.style.FillColor)
	s.StrokeWidth = b.style.StrokeWidth
	return s
}

// paint draws a shape-local path with fill then stroke inside the transform.
func (b *base) paint(ctx render.Context, p geom.Path) {
	b.transform.Begin(ctx)
	defer b.transform.End(ctx)

	if b.style.FillColor != nil {
		ctx.SetFillColor(*b.style.FillColor)
		ctx.AddPath(p)
		ctx.FillPath()
	}
	if b.style.StrokeColor != nil && b.style.StrokeWidth > 0 {
		ctx.SetStrokeColor(*b.style.StrokeColor)
		ctx.SetLineWidth(b.style.StrokeWidth)
		ctx.SetLineDash(0, nil)
		ctx.AddPath(p)
		ctx.StrokePath()
	}
}

// hitBounds is the rectangle-level hit test of selectable shapes.
func (b *base) hitBounds(local geom.Rect, p geom.Point) bool {
	return local.Applying(b.transform.Matrix()).Contains(p)
}

// strokeBounds grows r by half the stroke width.
func (b *base) strokeBounds(r geom.Rect) geom.Rect {
	half := b.style.StrokeWidth / 2
	return r.Inset(-half, -half)
}
