package shape

import (
	"encoding/json"
	"math"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

// twoPoint is the geometry shared by shapes defined by a drag from A to B.
type twoPoint struct {
	base
	A, B geom.Point
}

// Rect is the min/max box of A and B.
func (s *twoPoint) Rect() geom.Rect {
	return geom.RectFromPoints(s.A, s.B)
}

// SquareRect is anchored at A with side max(B.x-A.x, B.y-A.y).
func (s *twoPoint) SquareRect() geom.Rect {
	side := math.Max(s.B.X-s.A.X, s.B.Y-s.A.Y)
	return geom.Rect{X: s.A.X, Y: s.A.Y, Width: side, Height: side}
}

// SetPoints moves both defining points.
func (s *twoPoint) SetPoints(a, b geom.Point) {
	s.A, s.B = a, b
}

func (s *twoPoint) BoundingRect() geom.Rect {
	return s.strokeBounds(s.Rect())
}

func (s *twoPoint) HitTest(p geom.Point) bool {
	return s.hitBounds(s.BoundingRect(), p)
}

func (s *twoPoint) marshal(k Kind) ([]byte, error) {
	w := s.toWire(k)
	w.A, w.B = ptr(s.A), ptr(s.B)
	return json.Marshal(w)
}

func (s *twoPoint) unmarshal(k Kind, data []byte) error {
	w, err := s.decodeWire(k, data)
	if err != nil {
		return err
	}
	s.A, s.B = pointOrZero(w.A), pointOrZero(w.B)
	return nil
}

// RectShape is an axis-aligned rectangle before transformation.
type RectShape struct{ twoPoint }

func NewRect(a, b geom.Point) *RectShape {
	return &RectShape{twoPoint{base: newBase(), A: a, B: b}}
}

func (s *RectShape) Kind() Kind { return KindRect }

func (s *RectShape) Path() geom.Path {
	return geom.NewRectPath(s.Rect()).Transform(s.transform.Matrix())
}

func (s *RectShape) Render(ctx render.Context) {
	s.paint(ctx, geom.NewRectPath(s.Rect()))
}

func (s *RectShape) MarshalJSON() ([]byte, error)    { return s.marshal(KindRect) }
func (s *RectShape) UnmarshalJSON(data []byte) error { return s.unmarshal(KindRect, data) }

// EllipseShape is inscribed in the rect of A and B.
type EllipseShape struct{ twoPoint }

func NewEllipse(a, b geom.Point) *EllipseShape {
	return &EllipseShape{twoPoint{base: newBase(), A: a, B: b}}
}

func (s *EllipseShape) Kind() Kind { return KindEllipse }

func (s *EllipseShape) Path() geom.Path {
	return geom.NewEllipsePath(s.Rect()).Transform(s.transform.Matrix())
}

func (s *EllipseShape) Render(ctx render.Context) {
	s.paint(ctx, geom.NewEllipsePath(s.Rect()))
}

func (s *EllipseShape) MarshalJSON() ([]byte, error)    { return s.marshal(KindEllipse) }
func (s *EllipseShape) UnmarshalJSON(data []byte) error { return s.unmarshal(KindEllipse, data) }

// LineShape is a stroked segment from A to B. It has no fill.
type LineShape struct{ twoPoint }

func NewLine(a, b geom.Point) *LineShape {
	l := &LineShape{twoPoint{base: newBase(), A: a, B: b}}
	return l
}

func (s *LineShape) Kind() Kind { return KindLine }

func (s *LineShape) Path() geom.Path {
	return geom.NewLinePath(s.A, s.B).Transform(s.transform.Matrix())
}

// ApplySettings takes stroke colour and width only.
func (s *LineShape) ApplySettings(st Settings) {
	s.style.StrokeColor = cloneColor(st.StrokeColor)
	s.style.StrokeWidth = st.StrokeWidth
}

func (s *LineShape) OwnSettings(st Settings) Settings {
	st.StrokeColor = cloneColor(s.style.StrokeColor)
	st.StrokeWidth = s.style.StrokeWidth
	return st
}

func (s *LineShape) Render(ctx render.Context) {
	st := s.style
	s.style.FillColor = nil
	s.paint(ctx, geom.NewLinePath(s.A, s.B))
	s.style = st
}

func (s *LineShape) MarshalJSON() ([]byte, error)    { return s.marshal(KindLine) }
func (s *LineShape) UnmarshalJSON(data []byte) error { return s.unmarshal(KindLine, data) }
