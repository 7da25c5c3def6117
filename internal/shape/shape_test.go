package shape

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

const eps = 1e-9

func colorPtr(c render.Color) *render.Color { return &c }

// ============================================================================
// Transform Tests
// ============================================================================

func TestTransformTranslationAssociative(t *testing.T) {
	t0 := IdentityTransform().Rotated(0.3).Scaled(2)
	d1, d2 := geom.Pt(3, -4), geom.Pt(10, 7)

	stepwise := t0.Translated(d1).Translated(d2)
	combined := t0.Translated(d1.Add(d2))
	if stepwise != combined {
		t.Errorf("stepwise %+v != combined %+v", stepwise, combined)
	}
	if t0.Translation != (geom.Point{}) {
		t.Error("Translated mutated its receiver")
	}
}

func TestTransformMatrixOrder(t *testing.T) {
	tr := Transform{Translation: geom.Pt(100, 0), Rotation: math.Pi / 2, Scale: 2}

	// (1,0) scaled to (2,0), rotated to (0,2), translated to (100,2).
	got := tr.Apply(geom.Pt(1, 0))
	if !got.ApproxEqual(geom.Pt(100, 2), eps) {
		t.Errorf("Apply = %+v, want (100, 2)", got)
	}
	back := tr.Inverse(got)
	if !back.ApproxEqual(geom.Pt(1, 0), eps) {
		t.Errorf("Inverse = %+v, want (1, 0)", back)
	}
}

func TestTransformIdentity(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		want bool
	}{
		{"identity", IdentityTransform(), true},
		{"translated", IdentityTransform().Translated(geom.Pt(1, 0)), false},
		{"rotated", IdentityTransform().Rotated(0.1), false},
		{"scaled", IdentityTransform().Scaled(1.5), false},
		{"zero value has scale 0", Transform{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.IsIdentity(); got != tt.want {
				t.Errorf("IsIdentity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformBeginEnd(t *testing.T) {
	rec := render.NewRecorder()
	tr := IdentityTransform().Translated(geom.Pt(5, 5))
	tr.Begin(rec)
	if rec.Depth() != 1 || rec.State().CTM.IsIdentity() {
		t.Fatalf("Begin did not save and concat: depth %d", rec.Depth())
	}
	tr.End(rec)
	if rec.Depth() != 0 || !rec.State().CTM.IsIdentity() {
		t.Error("End did not restore")
	}
}

// ============================================================================
// Geometry Tests
// ============================================================================

func allShapes() []Selectable {
	var pen geom.Path
	pen.MoveTo(geom.Pt(0, 0))
	pen.QuadTo(geom.Pt(20, 40), geom.Pt(40, 0))

	return []Selectable{
		NewBezier(pen),
		NewRect(geom.Pt(10, 20), geom.Pt(110, 70)),
		NewEllipse(geom.Pt(0, 0), geom.Pt(80, 40)),
		NewLine(geom.Pt(5, 5), geom.Pt(50, 60)),
		NewTriangle(geom.Pt(0, 0), geom.Pt(30, 40), geom.Pt(-30, 40)),
		NewText("hello", 26),
	}
}

func TestBoundingRectIncludesStroke(t *testing.T) {
	for _, s := range allShapes() {
		t.Run(string(s.Kind()), func(t *testing.T) {
			s.ApplySettings(Settings{StrokeColor: colorPtr(render.Black), StrokeWidth: 8, FontSize: 26})

			var geometric geom.Rect
			switch g := s.(type) {
			case interface{ Rect() geom.Rect }:
				geometric = g.Rect().Inset(-4, -4)
			case *BezierShape:
				geometric = g.LocalPath().Bounds().Inset(-4, -4)
			default:
				geometric = s.BoundingRect()
			}
			if !s.BoundingRect().ContainsRect(geometric) {
				t.Errorf("BoundingRect %+v does not contain %+v", s.BoundingRect(), geometric)
			}
		})
	}
}

func TestTwoPointRects(t *testing.T) {
	r := NewRect(geom.Pt(50, 60), geom.Pt(10, 20))
	if got := r.Rect(); got != (geom.Rect{X: 10, Y: 20, Width: 40, Height: 40}) {
		t.Errorf("Rect() = %+v", got)
	}

	e := NewEllipse(geom.Pt(0, 0), geom.Pt(80, 120))
	if got := e.SquareRect(); got != (geom.Rect{X: 0, Y: 0, Width: 120, Height: 120}) {
		t.Errorf("SquareRect() = %+v", got)
	}
}

func TestHitTest(t *testing.T) {
	tri := NewTriangle(geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(0, 100))

	var outline geom.Path
	outline.MoveTo(geom.Pt(0, 0))
	outline.LineTo(geom.Pt(100, 0))
	outline.LineTo(geom.Pt(0, 100))
	outline.Close()
	bez := NewBezier(outline)

	moved := NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	moved.SetTransform(IdentityTransform().Translated(geom.Pt(100, 100)))

	tests := []struct {
		name string
		s    Shape
		p    geom.Point
		want bool
	}{
		// Triangle hit tests its bounds, so the far corner counts.
		{"triangle bounds corner", tri, geom.Pt(90, 90), true},
		{"bezier exact outline", bez, geom.Pt(90, 90), false},
		{"bezier inside", bez, geom.Pt(10, 10), true},
		{"moved rect new place", moved, geom.Pt(105, 105), true},
		{"moved rect old place", moved, geom.Pt(5, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.HitTest(tt.p); got != tt.want {
				t.Errorf("HitTest(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestApplySettings(t *testing.T) {
	red, blue := render.RGB(0xff, 0, 0), render.RGB(0, 0, 0xff)
	settings := Settings{StrokeColor: &red, FillColor: &blue, StrokeWidth: 5, FontSize: 40}

	r := NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	r.ApplySettings(settings)
	want := Style{StrokeColor: &red, FillColor: &blue, StrokeWidth: 5}
	if !r.Style().Equal(want) {
		t.Errorf("rect style = %+v", r.Style())
	}
	red.R = 0
	if r.Style().StrokeColor.R != 0xff {
		t.Error("style aliases the settings colour")
	}

	l := NewLine(geom.Pt(0, 0), geom.Pt(10, 10))
	l.ApplySettings(settings)
	if l.Style().FillColor != nil {
		t.Error("line took the fill setting")
	}

	txt := NewText("a", 12)
	txt.ApplySettings(settings)
	if txt.FontSize != 40 {
		t.Errorf("text font size = %v, want 40", txt.FontSize)
	}
}

func TestTextBoundsCentred(t *testing.T) {
	s := NewText("abcd", 26)
	b := s.BoundingRect()
	if math.Abs(b.Center().X) > eps || math.Abs(b.Center().Y) > eps {
		t.Errorf("text bounds centre = %+v", b.Center())
	}
	if math.Abs(b.Width-56) > eps || b.Height != 26 {
		t.Errorf("text bounds = %+v", b)
	}
}

// ============================================================================
// Render Tests
// ============================================================================

func TestRenderFillThenStroke(t *testing.T) {
	r := NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	red := render.RGB(0xff, 0, 0)
	r.SetStyle(Style{StrokeColor: colorPtr(render.Black), FillColor: &red, StrokeWidth: 2})

	rec := render.NewRecorder()
	r.Render(rec)
	cmds := rec.Commands()
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	if cmds[0].Fill != "#ff0000" || cmds[1].Stroke != "#000000" || cmds[1].StrokeWidth != 2 {
		t.Errorf("commands = %+v", cmds)
	}
	if rec.Depth() != 0 {
		t.Error("render left state on the stack")
	}

	l := NewLine(geom.Pt(0, 0), geom.Pt(10, 10))
	l.SetStyle(Style{StrokeColor: colorPtr(render.Black), FillColor: &red, StrokeWidth: 2})
	rec = render.NewRecorder()
	l.Render(rec)
	if len(rec.Commands()) != 1 || rec.Commands()[0].Fill != "" {
		t.Errorf("line painted a fill: %+v", rec.Commands())
	}
}

// ============================================================================
// Codec Tests
// ============================================================================

func TestCodecRoundTrip(t *testing.T) {
	red := render.RGB(0xff, 0, 0)
	for _, s := range allShapes() {
		t.Run(string(s.Kind()), func(t *testing.T) {
			s.ApplySettings(Settings{StrokeColor: &red, StrokeWidth: 4, FontSize: 30})
			s.SetTransform(Transform{Translation: geom.Pt(5, 6), Rotation: 0.5, Scale: 1.25})

			data, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.ID() != s.ID() || got.Kind() != s.Kind() {
				t.Errorf("decoded %s/%s, want %s/%s", got.ID(), got.Kind(), s.ID(), s.Kind())
			}
			gs := got.(Selectable)
			if gs.Transform() != s.Transform() {
				t.Errorf("transform = %+v, want %+v", gs.Transform(), s.Transform())
			}
			if gs.BoundingRect() != s.BoundingRect() {
				t.Errorf("bounds = %+v, want %+v", gs.BoundingRect(), s.BoundingRect())
			}
			if !got.(Styled).Style().Equal(s.(Styled).Style()) {
				t.Errorf("style = %+v, want %+v", got.(Styled).Style(), s.(Styled).Style())
			}

			again, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("Marshal again: %v", err)
			}
			if string(again) != string(data) {
				t.Errorf("re-encoded differs:\n%s\n%s", again, data)
			}
		})
	}
}

func TestCodecOmitsIdentityTransform(t *testing.T) {
	data, err := json.Marshal(NewRect(geom.Pt(0, 0), geom.Pt(1, 1)))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "transform") {
		t.Errorf("identity transform serialised: %s", data)
	}
	if strings.Contains(string(data), "fillColor") {
		t.Errorf("absent fill serialised: %s", data)
	}
	if !strings.Contains(string(data), `"strokeColor":"#000000"`) {
		t.Errorf("missing stroke: %s", data)
	}

	var r RectShape
	if err := r.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if !r.Transform().IsIdentity() {
		t.Errorf("decoded transform = %+v", r.Transform())
	}
}

func TestCodecErrors(t *testing.T) {
	rect, _ := json.Marshal(NewRect(geom.Pt(0, 0), geom.Pt(1, 1)))

	var e EllipseShape
	if err := e.UnmarshalJSON(rect); !errors.Is(err, ErrWrongShapeType) {
		t.Errorf("ellipse from rect: err = %v, want ErrWrongShapeType", err)
	}

	if _, err := Decode([]byte(`{"type":"StarShape"}`)); !errors.Is(err, ErrUnknownShapeType) {
		t.Errorf("Decode unknown: err = %v, want ErrUnknownShapeType", err)
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("Decode garbage should fail")
	}
}

func TestCodecColorNames(t *testing.T) {
	data := []byte(`{"id":"shape_01h455vb4pex5vsknk084sn02q","type":"LineShape","strokeColor":"tomato","fillColor":null,"strokeWidth":2,"a":{"x":0,"y":0},"b":{"x":5,"y":5}}`)
	s, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := s.(Styled).Style().StrokeColor
	if got == nil || *got != render.RGB(0xff, 0x63, 0x47) {
		t.Errorf("stroke = %v, want tomato", got)
	}
}

func TestOwnSettings(t *testing.T) {
	red := render.RGB(0xff, 0, 0)
	blue := render.RGB(0, 0, 0xff)
	green := render.RGB(0, 0x80, 0)
	ambient := Settings{StrokeColor: &red, FillColor: &red, StrokeWidth: 3, FontSize: 24}
	style := Style{StrokeColor: &blue, FillColor: &green, StrokeWidth: 6}

	text := NewText("hi", 40)
	tests := []struct {
		name  string
		shape Shape
		fill  render.Color
		width float64
		font  float64
	}{
		{"rect takes paint", NewRect(geom.Pt(0, 0), geom.Pt(1, 1)), green, 6, 24},
		{"line keeps fill", NewLine(geom.Pt(0, 0), geom.Pt(1, 1)), red, 6, 24},
		{"text keeps fill and width", text, red, 3, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.shape.(Styled).SetStyle(style)
			got := tt.shape.(SettingsOwner).OwnSettings(ambient)
			if got.StrokeColor == nil || *got.StrokeColor != blue {
				t.Errorf("stroke = %v, want blue", got.StrokeColor)
			}
			if got.FillColor == nil || *got.FillColor != tt.fill {
				t.Errorf("fill = %v, want %v", got.FillColor, tt.fill)
			}
			if got.StrokeWidth != tt.width || got.FontSize != tt.font {
				t.Errorf("width %v font %v, want %v %v", got.StrokeWidth, got.FontSize, tt.width, tt.font)
			}
		})
	}
	if *ambient.FillColor != red {
		t.Error("OwnSettings changed its argument's colours")
	}
}
