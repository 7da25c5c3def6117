package shape

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/typeid"
)

var (
	// ErrWrongShapeType is returned when a payload's type tag does not
	// match the shape it is decoded into.
	ErrWrongShapeType = errors.New("wrong shape type")
	// ErrUnknownShapeType is returned by Decode for unregistered tags.
	ErrUnknownShapeType = errors.New("unknown shape type")
)

// wire is the persisted form of every shape. Geometry fields are set by
// the variant that owns them.
type wire struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	StrokeColor *render.Color `json:"strokeColor,omitempty"`
	FillColor   *render.Color `json:"fillColor,omitempty"`
	StrokeWidth float64       `json:"strokeWidth"`
	Transform   *Transform    `json:"transform,omitempty"`

	Path     *geom.Path  `json:"path,omitempty"`
	A        *geom.Point `json:"a,omitempty"`
	B        *geom.Point `json:"b,omitempty"`
	C        *geom.Point `json:"c,omitempty"`
	Text     string      `json:"text,omitempty"`
	FontSize float64     `json:"fontSize,omitempty"`
}

func (b *base) toWire(k Kind) wire {
	w := wire{
		ID:          b.id,
		Type:        k.TypeTag(),
		StrokeColor: b.style.StrokeColor,
		FillColor:   b.style.FillColor,
		StrokeWidth: b.style.StrokeWidth,
	}
	if !b.transform.IsIdentity() {
		t := b.transform
		w.Transform = &t
	}
	return w
}

// decodeWire parses data and checks its tag against k before touching b.
func (b *base) decodeWire(k Kind, data []byte) (wire, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return wire{}, fmt.Errorf("decode %s: %w", k.TypeTag(), err)
	}
	if w.Type != k.TypeTag() {
		return wire{}, fmt.Errorf("decode %s from %q: %w", k.TypeTag(), w.Type, ErrWrongShapeType)
	}

	b.id = w.ID
	if b.id == "" {
		b.id = typeid.NewShapeID()
	}
	b.transform = IdentityTransform()
	if w.Transform != nil {
		b.transform = *w.Transform
	}
	b.style = Style{
		StrokeColor: w.StrokeColor,
		FillColor:   w.FillColor,
		StrokeWidth: w.StrokeWidth,
	}
	return w, nil
}

func pointOrZero(p *geom.Point) geom.Point {
	if p == nil {
		return geom.Point{}
	}
	return *p
}

func ptr[T any](v T) *T { return &v }

var constructors = map[string]func() Shape{}

func init() {
	Register(KindBezier, func() Shape { return &BezierShape{} })
	Register(KindRect, func() Shape { return &RectShape{} })
	Register(KindEllipse, func() Shape { return &EllipseShape{} })
	Register(KindLine, func() Shape { return &LineShape{} })
	Register(KindTriangle, func() Shape { return &TriangleShape{} })
	Register(KindText, func() Shape { return &TextShape{} })
}

// Register makes a kind decodable by Decode.
func Register(k Kind, newShape func() Shape) {
	constructors[k.TypeTag()] = newShape
}

// Decode picks the concrete shape from the payload's type tag.
func Decode(data []byte) (Shape, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode shape: %w", err)
	}
	newShape, ok := constructors[head.Type]
	if !ok {
		return nil, fmt.Errorf("decode shape %q: %w", head.Type, ErrUnknownShapeType)
	}
	s := newShape()
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}
