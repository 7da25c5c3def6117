package shape

import (
	"encoding/json"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

// TriangleShape is a closed triangle through A, B and C.
type TriangleShape struct {
	base
	A, B, C geom.Point
}

func NewTriangle(a, b, c geom.Point) *TriangleShape {
	return &TriangleShape{base: newBase(), A: a, B: b, C: c}
}

// NewIsoscelesTriangle has its apex at apex and its base running from
// corner to the mirror of corner across the apex's vertical.
func NewIsoscelesTriangle(apex, corner geom.Point) *TriangleShape {
	s := &TriangleShape{base: newBase()}
	s.SetPoints(apex, corner)
	return s
}

func (s *TriangleShape) Kind() Kind { return KindTriangle }

// SetPoints reshapes the triangle as NewIsoscelesTriangle(apex, corner).
func (s *TriangleShape) SetPoints(apex, corner geom.Point) {
	s.A, s.B, s.C = apex, corner, geom.Pt(2*apex.X-corner.X, corner.Y)
}

func (s *TriangleShape) Rect() geom.Rect {
	return geom.RectFromPoints(s.A, s.B, s.C)
}

func (s *TriangleShape) BoundingRect() geom.Rect {
	return s.strokeBounds(s.Rect())
}

func (s *TriangleShape) HitTest(p geom.Point) bool {
	return s.hitBounds(s.BoundingRect(), p)
}

func (s *TriangleShape) localPath() geom.Path {
	return geom.NewPolygonPath(true, s.A, s.B, s.C)
}

func (s *TriangleShape) Path() geom.Path {
	return s.localPath().Transform(s.transform.Matrix())
}

func (s *TriangleShape) Render(ctx render.Context) {
	s.paint(ctx, s.localPath())
}

func (s *TriangleShape) MarshalJSON() ([]byte, error) {
	w := s.toWire(KindTriangle)
	w.A, w.B, w.C = ptr(s.A), ptr(s.B), ptr(s.C)
	return json.Marshal(w)
}

func (s *TriangleShape) UnmarshalJSON(data []byte) error {
	w, err := s.decodeWire(KindTriangle, data)
	if err != nil {
		return err
	}
	s.A, s.B, s.C = pointOrZero(w.A), pointOrZero(w.B), pointOrZero(w.C)
	return nil
}
