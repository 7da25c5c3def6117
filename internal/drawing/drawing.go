// Package drawing holds the ordered shape collection being edited.
package drawing

import (
	"encoding/json"
	"fmt"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/shape"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Drawing owns its shapes; the slice order is the z-order, last on top.
type Drawing struct {
	ID        string
	Name      string
	Width     float64
	Height    float64
	CreatedAt string
	UpdatedAt string

	shapes []shape.Shape
}

func New(id, name string) *Drawing {
	return &Drawing{ID: id, Name: name, Width: DefaultWidth, Height: DefaultHeight}
}

// Add puts s on top.
func (d *Drawing) Add(s shape.Shape) {
	d.shapes = append(d.shapes, s)
}

// Insert places s at index i, clamped to the valid range.
func (d *Drawing) Insert(i int, s shape.Shape) {
	i = max(0, min(i, len(d.shapes)))
	d.shapes = append(d.shapes, nil)
	copy(d.shapes[i+1:], d.shapes[i:])
	d.shapes[i] = s
}

// Remove takes the shape with the given id out of the drawing and reports
// where it was.
func (d *Drawing) Remove(id string) (shape.Shape, int, bool) {
	i := d.Index(id)
	if i < 0 {
		return nil, -1, false
	}
	s := d.shapes[i]
	d.shapes = append(d.shapes[:i], d.shapes[i+1:]...)
	return s, i, true
}

func (d *Drawing) Shape(id string) (shape.Shape, bool) {
	i := d.Index(id)
	if i < 0 {
		return nil, false
	}
	return d.shapes[i], true
}

// Index returns the z-order position of id, or -1.
func (d *Drawing) Index(id string) int {
	for i, s := range d.shapes {
		if s.ID() == id {
			return i
		}
	}
	return -1
}

// Shapes returns a copy of the shape list in z-order.
func (d *Drawing) Shapes() []shape.Shape {
	out := make([]shape.Shape, len(d.shapes))
	copy(out, d.shapes)
	return out
}

func (d *Drawing) Len() int { return len(d.shapes) }

// SelectableAt returns the topmost selectable shape hit by p.
func (d *Drawing) SelectableAt(p geom.Point) (shape.Selectable, bool) {
	for i := len(d.shapes) - 1; i >= 0; i-- {
		s, ok := d.shapes[i].(shape.Selectable)
		if ok && s.HitTest(p) {
			return s, true
		}
	}
	return nil, false
}

// HitTest returns the id of the topmost shape hit by p, or "".
func (d *Drawing) HitTest(p geom.Point) string {
	for i := len(d.shapes) - 1; i >= 0; i-- {
		if d.shapes[i].HitTest(p) {
			return d.shapes[i].ID()
		}
	}
	return ""
}

// Render paints every shape back to front. Recorders get each command
// tagged with its shape id.
func (d *Drawing) Render(ctx render.Context) {
	tagger, _ := ctx.(interface{ SetObjectID(string) })
	for _, s := range d.shapes {
		if tagger != nil {
			tagger.SetObjectID(s.ID())
		}
		s.Render(ctx)
	}
	if tagger != nil {
		tagger.SetObjectID("")
	}
}

type drawingJSON struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	CreatedAt string            `json:"createdAt,omitempty"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
	Shapes    []json.RawMessage `json:"shapes"`
}

func (d *Drawing) MarshalJSON() ([]byte, error) {
	out := drawingJSON{
		ID:        d.ID,
		Name:      d.Name,
		Width:     d.Width,
		Height:    d.Height,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Shapes:    make([]json.RawMessage, 0, len(d.shapes)),
	}
	for _, s := range d.shapes {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode shape %s: %w", s.ID(), err)
		}
		out.Shapes = append(out.Shapes, data)
	}
	return json.Marshal(out)
}

func (d *Drawing) UnmarshalJSON(data []byte) error {
	var in drawingJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode drawing: %w", err)
	}
	shapes := make([]shape.Shape, 0, len(in.Shapes))
	for i, raw := range in.Shapes {
		s, err := shape.Decode(raw)
		if err != nil {
			return fmt.Errorf("decode drawing: shape %d: %w", i, err)
		}
		shapes = append(shapes, s)
	}

	*d = Drawing{
		ID:        in.ID,
		Name:      in.Name,
		Width:     in.Width,
		Height:    in.Height,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
		shapes:    shapes,
	}
	if d.Width <= 0 {
		d.Width = DefaultWidth
	}
	if d.Height <= 0 {
		d.Height = DefaultHeight
	}
	return nil
}

// Parse decodes a drawing from JSON.
func Parse(data []byte) (*Drawing, error) {
	var d Drawing
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
