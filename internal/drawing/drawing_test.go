package drawing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/shape"
)

func ids(d *Drawing) []string {
	var out []string
	for _, s := range d.Shapes() {
		out = append(out, s.ID())
	}
	return out
}

func TestInsertRemoveKeepsOrder(t *testing.T) {
	d := New("drw_1", "test")
	a := shape.NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	b := shape.NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	c := shape.NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	d.Add(a)
	d.Add(c)
	d.Insert(1, b)

	want := []string{a.ID(), b.ID(), c.ID()}
	if got := ids(d); len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("order = %v, want %v", got, want)
	}

	removed, idx, ok := d.Remove(b.ID())
	if !ok || idx != 1 || removed != b {
		t.Fatalf("Remove = %v, %d, %v", removed, idx, ok)
	}
	if _, _, ok := d.Remove(b.ID()); ok {
		t.Error("second Remove should report missing")
	}

	d.Insert(idx, removed)
	if d.Index(b.ID()) != 1 {
		t.Errorf("reinserted at %d, want 1", d.Index(b.ID()))
	}

	d.Insert(99, shape.NewText("x", 10))
	if d.Len() != 4 {
		t.Errorf("Len() = %d", d.Len())
	}
}

func TestSelectableAtTopmost(t *testing.T) {
	d := New("drw_1", "test")
	bottom := shape.NewRect(geom.Pt(0, 0), geom.Pt(100, 100))
	top := shape.NewEllipse(geom.Pt(50, 50), geom.Pt(150, 150))
	d.Add(bottom)
	d.Add(top)

	tests := []struct {
		name string
		p    geom.Point
		want string
	}{
		{"overlap picks top", geom.Pt(75, 75), top.ID()},
		{"bottom only", geom.Pt(10, 10), bottom.ID()},
		{"miss", geom.Pt(300, 300), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := d.SelectableAt(tt.p)
			got := ""
			if ok {
				got = s.ID()
			}
			if got != tt.want {
				t.Errorf("SelectableAt = %q, want %q", got, tt.want)
			}
			if hit := d.HitTest(tt.p); hit != tt.want {
				t.Errorf("HitTest = %q, want %q", hit, tt.want)
			}
		})
	}
}

func TestSampleRoundTrip(t *testing.T) {
	d := NewSample("drw_sample")
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back.ID != d.ID || back.Len() != d.Len() || back.Width != d.Width {
		t.Fatalf("decoded %s with %d shapes", back.ID, back.Len())
	}
	for i, s := range d.Shapes() {
		if got := back.Shapes()[i]; got.ID() != s.ID() || got.Kind() != s.Kind() {
			t.Errorf("shape %d = %s/%s, want %s/%s", i, got.ID(), got.Kind(), s.ID(), s.Kind())
		}
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"id":"d","shapes":[{"type":"BlobShape"}]}`))
	if !errors.Is(err, shape.ErrUnknownShapeType) {
		t.Errorf("err = %v, want ErrUnknownShapeType", err)
	}

	d, err := Parse([]byte(`{"id":"d","shapes":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if d.Width != DefaultWidth || d.Height != DefaultHeight {
		t.Errorf("size = %vx%v, want defaults", d.Width, d.Height)
	}
}

func TestRenderTagsShapes(t *testing.T) {
	d := New("drw_1", "test")
	r := shape.NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	d.Add(r)

	rec := render.NewRecorder()
	d.Render(rec)
	cmds := rec.Commands()
	if len(cmds) == 0 {
		t.Fatal("no commands recorded")
	}
	for _, c := range cmds {
		if c.ObjectID != r.ID() {
			t.Errorf("command tagged %q, want %q", c.ObjectID, r.ID())
		}
	}
}
