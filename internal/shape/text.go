package shape

import (
	"encoding/json"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

// DefaultFontSize is used when a text shape has no size.
const DefaultFontSize = 24

// TextShape is a single line of text centred on its translation. It is
// painted with the stroke colour.
type TextShape struct {
	base
	Text     string
	FontSize float64
}

func NewText(text string, fontSize float64) *TextShape {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	return &TextShape{base: newBase(), Text: text, FontSize: fontSize}
}

func (s *TextShape) Kind() Kind { return KindText }

// BoundingRect is the measured text box centred on the origin.
func (s *TextShape) BoundingRect() geom.Rect {
	w, h := render.MeasureText(s.Text, s.FontSize)
	return geom.Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h}
}

func (s *TextShape) HitTest(p geom.Point) bool {
	return s.hitBounds(s.BoundingRect(), p)
}

// ApplySettings takes stroke colour and font size.
func (s *TextShape) ApplySettings(st Settings) {
	s.style.StrokeColor = cloneColor(st.StrokeColor)
	if st.FontSize > 0 {
		s.FontSize = st.FontSize
	}
}

func (s *TextShape) OwnSettings(st Settings) Settings {
	st.StrokeColor = cloneColor(s.style.StrokeColor)
	st.FontSize = s.FontSize
	return st
}

func (s *TextShape) Render(ctx render.Context) {
	if s.Text == "" || s.style.StrokeColor == nil {
		return
	}
	s.transform.Begin(ctx)
	defer s.transform.End(ctx)
	ctx.SetFillColor(*s.style.StrokeColor)
	ctx.ShowText(s.Text, geom.Point{}, s.FontSize)
}

func (s *TextShape) MarshalJSON() ([]byte, error) {
	w := s.toWire(KindText)
	w.Text = s.Text
	w.FontSize = s.FontSize
	return json.Marshal(w)
}

func (s *TextShape) UnmarshalJSON(data []byte) error {
	w, err := s.decodeWire(KindText, data)
	if err != nil {
		return err
	}
	s.Text = w.Text
	s.FontSize = w.FontSize
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	return nil
}
