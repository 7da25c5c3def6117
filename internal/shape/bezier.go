package shape

import (
	"encoding/json"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

// BezierShape is a freehand or imported path. Unlike the other selectable
// shapes it hit tests against its filled outline, not its bounds.
type BezierShape struct {
	base
	path geom.Path
}

func NewBezier(p geom.Path) *BezierShape {
	return &BezierShape{base: newBase(), path: p.Clone()}
}

func (s *BezierShape) Kind() Kind { return KindBezier }

// LocalPath returns the untransformed path.
func (s *BezierShape) LocalPath() geom.Path { return s.path.Clone() }

// SetLocalPath replaces the untransformed path.
func (s *BezierShape) SetLocalPath(p geom.Path) { s.path = p.Clone() }

func (s *BezierShape) Path() geom.Path {
	return s.path.Transform(s.transform.Matrix())
}

func (s *BezierShape) BoundingRect() geom.Rect {
	return s.strokeBounds(s.path.Bounds())
}

func (s *BezierShape) HitTest(p geom.Point) bool {
	return s.Path().Contains(p)
}

func (s *BezierShape) Render(ctx render.Context) {
	s.paint(ctx, s.path)
}

func (s *BezierShape) MarshalJSON() ([]byte, error) {
	w := s.toWire(KindBezier)
	w.Path = &s.path
	return json.Marshal(w)
}

func (s *BezierShape) UnmarshalJSON(data []byte) error {
	w, err := s.decodeWire(KindBezier, data)
	if err != nil {
		return err
	}
	s.path = geom.Path{}
	if w.Path != nil {
		s.path = *w.Path
	}
	return nil
}
