// Package render defines the drawing context shapes paint into and the
// draw command recorder handed to the browser host.
package render

import "github.com/inkpad/inkpad/internal/geom"

// Context is a stateful 2D drawing surface. Paths are added in the current
// user space; FillPath and StrokePath consume the current path.
type Context interface {
	SaveState()
	RestoreState()
	Concat(m geom.Matrix)

	SetLineWidth(w float64)
	SetLineDash(phase float64, lengths []float64)
	SetFillColor(c Color)
	SetStrokeColor(c Color)

	AddPath(p geom.Path)
	FillPath()
	StrokePath()

	// ShowText paints text centred on at, using the fill colour.
	ShowText(text string, at geom.Point, size float64)
}

// GState is the graphics state shared by every Context implementation.
type GState struct {
	CTM         geom.Matrix
	LineWidth   float64
	DashPhase   float64
	Dash        []float64
	FillColor   Color
	StrokeColor Color
}

// DefaultGState returns identity CTM, one unit lines and black paint.
func DefaultGState() GState {
	return GState{
		CTM:         geom.Identity(),
		LineWidth:   1,
		FillColor:   Black,
		StrokeColor: Black,
	}
}

// StateStack implements the save/restore/concat half of Context. Embed it
// in concrete contexts.
type StateStack struct {
	cur   GState
	saved []GState
	path  geom.Path
}

// NewStateStack starts from DefaultGState.
func NewStateStack() StateStack {
	return StateStack{cur: DefaultGState()}
}

func (s *StateStack) SaveState() {
	g := s.cur
	g.Dash = append([]float64(nil), s.cur.Dash...)
	s.saved = append(s.saved, g)
}

// RestoreState pops the last saved state; unbalanced calls are ignored.
func (s *StateStack) RestoreState() {
	if len(s.saved) == 0 {
		return
	}
	s.cur = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
}

func (s *StateStack) Concat(m geom.Matrix) {
	s.cur.CTM = s.cur.CTM.Multiply(m)
}

func (s *StateStack) SetLineWidth(w float64) { s.cur.LineWidth = w }

func (s *StateStack) SetLineDash(phase float64, lengths []float64) {
	s.cur.DashPhase = phase
	s.cur.Dash = append([]float64(nil), lengths...)
}

func (s *StateStack) SetFillColor(c Color)   { s.cur.FillColor = c }
func (s *StateStack) SetStrokeColor(c Color) { s.cur.StrokeColor = c }

// AddPath appends p, mapped to device space by the current CTM.
func (s *StateStack) AddPath(p geom.Path) {
	for _, el := range p.Transform(s.cur.CTM).Elements() {
		switch el.Verb {
		case geom.MoveTo:
			s.path.MoveTo(el.Points[0])
		case geom.LineTo:
			s.path.LineTo(el.Points[0])
		case geom.QuadTo:
			s.path.QuadTo(el.Points[0], el.Points[1])
		case geom.CubicTo:
			s.path.CubicTo(el.Points[0], el.Points[1], el.Points[2])
		case geom.Close:
			s.path.Close()
		}
	}
}

// State returns the current graphics state.
func (s *StateStack) State() GState { return s.cur }

// Depth returns the number of saved states.
func (s *StateStack) Depth() int { return len(s.saved) }

// TakePath returns the current device-space path and clears it.
func (s *StateStack) TakePath() geom.Path {
	p := s.path
	s.path = geom.Path{}
	return p
}
