// Package pdf writes drawings as single-page PDF documents using gofpdf.
package pdf

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

// Document is a render.Context that paints onto one PDF page measured in
// points, sized like the drawing. Paths are mapped through the context's
// own CTM before they reach gofpdf.
type Document struct {
	render.StateStack
	pdf *gofpdf.Fpdf
}

// New returns a document with a single w×h page.
func New(w, h float64) *Document {
	size := gofpdf.SizeType{Wd: w, Ht: h}
	f := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           size,
	})
	f.SetMargins(0, 0, 0)
	f.SetAutoPageBreak(false, 0)
	f.SetLineJoinStyle("round")
	f.SetLineCapStyle("round")
	f.AddPageFormat("P", size)
	return &Document{StateStack: render.NewStateStack(), pdf: f}
}

func (d *Document) FillPath() {
	p := d.TakePath()
	if !d.emit(p) {
		return
	}
	c := d.State().FillColor
	d.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	d.pdf.SetAlpha(float64(c.A)/255, "Normal")
	d.pdf.DrawPath("F")
}

func (d *Document) StrokePath() {
	p := d.TakePath()
	st := d.State()
	scale := st.CTM.ScaleFactor()
	if st.LineWidth*scale <= 0 || !d.emit(p) {
		return
	}
	c := st.StrokeColor
	d.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	d.pdf.SetAlpha(float64(c.A)/255, "Normal")
	d.pdf.SetLineWidth(st.LineWidth * scale)
	dash := make([]float64, len(st.Dash))
	for i, l := range st.Dash {
		dash[i] = l * scale
	}
	d.pdf.SetDashPattern(dash, st.DashPhase*scale)
	d.pdf.DrawPath("D")
}

func (d *Document) ShowText(text string, at geom.Point, size float64) {
	if text == "" || size <= 0 {
		return
	}
	st := d.State()
	pt := size * st.CTM.ScaleFactor()
	center := st.CTM.TransformPoint(at)
	c := st.FillColor

	d.pdf.SetFont("Helvetica", "", pt)
	d.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	d.pdf.SetAlpha(float64(c.A)/255, "Normal")
	w := d.pdf.GetStringWidth(text)
	// Text positions the baseline; shift by roughly a third of the size to
	// centre the cap height on the point.
	d.pdf.Text(center.X-w/2, center.Y+pt*0.35, text)
}

// emit replays a device-space path into gofpdf, converting quadratic
// segments to cubics. It reports whether anything was emitted.
func (d *Document) emit(p geom.Path) bool {
	if p.IsEmpty() {
		return false
	}
	var cur, start geom.Point
	for _, el := range p.Elements() {
		switch el.Verb {
		case geom.MoveTo:
			cur = el.Points[0]
			start = cur
			d.pdf.MoveTo(cur.X, cur.Y)
		case geom.LineTo:
			cur = el.Points[0]
			d.pdf.LineTo(cur.X, cur.Y)
		case geom.QuadTo:
			q, end := el.Points[0], el.Points[1]
			c1 := cur.Add(q.Sub(cur).Mul(2.0 / 3))
			c2 := end.Add(q.Sub(end).Mul(2.0 / 3))
			d.pdf.CurveBezierCubicTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
			cur = end
		case geom.CubicTo:
			c1, c2, end := el.Points[0], el.Points[1], el.Points[2]
			d.pdf.CurveBezierCubicTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
			cur = end
		case geom.Close:
			d.pdf.ClosePath()
			cur = start
		}
	}
	return true
}

// Output writes the finished PDF to w.
func (d *Document) Output(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
