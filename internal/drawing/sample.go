package drawing

import (
	"time"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/shape"
)

// NewSample returns a drawing with one shape of each kind, used for new
// boards and for local development.
func NewSample(id string) *Drawing {
	now := time.Now().UTC().Format(time.RFC3339)
	d := New(id, "Untitled")
	d.CreatedAt, d.UpdatedAt = now, now

	stroke := func(c render.Color, w float64, fill *render.Color) shape.Settings {
		return shape.Settings{StrokeColor: &c, FillColor: fill, StrokeWidth: w, FontSize: 32}
	}
	blue := render.RGB(0x4a, 0x90, 0xd9)
	coral := render.RGB(0xe8, 0x6a, 0x5c)
	green := render.RGB(0x5c, 0xb8, 0x5c)

	rect := shape.NewRect(geom.Pt(100, 100), geom.Pt(300, 220))
	rect.ApplySettings(stroke(render.Black, 3, &blue))
	d.Add(rect)

	ellipse := shape.NewEllipse(geom.Pt(400, 120), geom.Pt(560, 280))
	ellipse.ApplySettings(stroke(render.Black, 3, &coral))
	d.Add(ellipse)

	tri := shape.NewIsoscelesTriangle(geom.Pt(760, 100), geom.Pt(840, 260))
	tri.ApplySettings(stroke(render.Black, 3, &green))
	d.Add(tri)

	line := shape.NewLine(geom.Pt(100, 400), geom.Pt(500, 480))
	line.ApplySettings(stroke(blue, 5, nil))
	d.Add(line)

	var wave geom.Path
	wave.MoveTo(geom.Pt(600, 420))
	wave.CubicTo(geom.Pt(660, 340), geom.Pt(720, 500), geom.Pt(780, 420))
	wave.QuadTo(geom.Pt(830, 360), geom.Pt(880, 420))
	pen := shape.NewBezier(wave)
	pen.ApplySettings(stroke(coral, 4, nil))
	d.Add(pen)

	title := shape.NewText("inkpad", 32)
	title.ApplySettings(stroke(render.Black, 1, nil))
	title.SetTransform(shape.IdentityTransform().Translated(geom.Pt(640, 620)))
	d.Add(title)

	return d
}
