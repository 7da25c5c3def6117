// Package raster paints drawings into RGBA images with the
// golang.org/x/image/vector rasterizer.
package raster

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
)

// flatness is the maximum deviation, in pixels, of flattened curves.
const flatness = 0.25

// Canvas is a render.Context backed by an *image.RGBA.
type Canvas struct {
	render.StateStack
	img *image.RGBA
}

// New returns a w×h canvas cleared to background.
func New(w, h int, background render.Color) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return &Canvas{StateStack: render.NewStateStack(), img: img}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func (c *Canvas) FillPath() {
	p := c.TakePath()
	z := c.rasterizer()
	if z == nil {
		return
	}
	filled := false
	for _, line := range p.Flatten(flatness) {
		if len(line.Points) < 3 {
			continue
		}
		z.MoveTo(f32(line.Points[0]))
		for _, pt := range line.Points[1:] {
			z.LineTo(f32(pt))
		}
		z.ClosePath()
		filled = true
	}
	if filled {
		c.paint(z, c.State().FillColor)
	}
}

// StrokePath expands each flattened segment into a quad plus a joint
// polygon at every vertex, all wound the same way so overlaps saturate
// instead of cancelling.
func (c *Canvas) StrokePath() {
	p := c.TakePath()
	st := c.State()
	half := st.LineWidth * st.CTM.ScaleFactor() / 2
	if half <= 0 {
		return
	}
	z := c.rasterizer()
	if z == nil {
		return
	}

	stroked := false
	for _, line := range p.Flatten(flatness) {
		pts := line.Points
		if line.Closed && len(pts) > 1 && !pts[0].ApproxEqual(pts[len(pts)-1], 1e-9) {
			pts = append(pts, pts[0])
		}
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			d := b.Sub(a)
			l := d.Length()
			if l == 0 {
				continue
			}
			n := geom.Pt(-d.Y/l*half, d.X/l*half)
			addPolygon(z, a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))
			stroked = true
		}
		for _, pt := range pts {
			addPolygon(z, joint(pt, half)...)
			stroked = true
		}
	}
	if stroked {
		c.paint(z, st.StrokeColor)
	}
}

// ShowText rasterises text with render.TextFace at its native size and
// scales it into place. Rotation in the CTM is not applied.
func (c *Canvas) ShowText(text string, at geom.Point, size float64) {
	if text == "" || size <= 0 {
		return
	}
	st := c.State()
	nw := font.MeasureString(render.TextFace, text).Ceil()
	if nw <= 0 {
		return
	}
	tmp := image.NewRGBA(image.Rect(0, 0, nw, render.TextFaceHeight))
	d := font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(st.FillColor),
		Face: render.TextFace,
		Dot:  fixed.P(0, render.TextFace.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	scale := size / render.TextFaceHeight * st.CTM.ScaleFactor()
	center := st.CTM.TransformPoint(at)
	w, h := float64(nw)*scale, render.TextFaceHeight*scale
	dr := image.Rect(
		int(math.Round(center.X-w/2)), int(math.Round(center.Y-h/2)),
		int(math.Round(center.X+w/2)), int(math.Round(center.Y+h/2)),
	)
	xdraw.BiLinear.Scale(c.img, dr, tmp, tmp.Bounds(), xdraw.Over, nil)
}

func (c *Canvas) rasterizer() *vector.Rasterizer {
	b := c.img.Bounds()
	if b.Empty() {
		return nil
	}
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

func (c *Canvas) paint(z *vector.Rasterizer, col render.Color) {
	z.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

func f32(p geom.Point) (float32, float32) {
	return float32(p.X), float32(p.Y)
}

// addPolygon adds a closed polygon with positive signed area.
func addPolygon(z *vector.Rasterizer, pts ...geom.Point) {
	if len(pts) < 3 {
		return
	}
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(f32(pts[0]))
	for _, pt := range pts[1:] {
		z.LineTo(f32(pt))
	}
	z.ClosePath()
}

// joint approximates a disc of radius r around p with an octagon.
func joint(p geom.Point, r float64) []geom.Point {
	pts := make([]geom.Point, 8)
	for i := range pts {
		a := float64(i) * math.Pi / 4
		pts[i] = geom.Pt(p.X+r*math.Cos(a), p.Y+r*math.Sin(a))
	}
	return pts
}
