package pdf

import (
	"bytes"
	"testing"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

func TestDocumentOutput(t *testing.T) {
	d := New(200, 100)
	d.SaveState()
	d.Concat(geom.Translate(50, 50))
	d.SetFillColor(render.RGB(0, 0x80, 0))
	d.AddPath(geom.NewEllipsePath(geom.Rect{X: -20, Y: -20, Width: 40, Height: 40}))
	d.FillPath()

	var quad geom.Path
	quad.MoveTo(geom.Pt(0, 0))
	quad.QuadTo(geom.Pt(10, 20), geom.Pt(20, 0))
	quad.Close()
	d.SetLineDash(0, []float64{4, 2})
	d.SetLineWidth(2)
	d.AddPath(quad)
	d.StrokePath()
	d.RestoreState()

	d.ShowText("inkpad", geom.Pt(100, 80), 14)

	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}
