package editing

import (
	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/operation"
	"github.com/inkpad/inkpad/internal/shape"
)

// MinShapeSize is the extent below which a drawn shape is discarded.
const MinShapeSize = 1.0

// Tool names of the creation tools.
const (
	PenToolName      = "pen"
	RectToolName     = "rect"
	EllipseToolName  = "ellipse"
	LineToolName     = "line"
	TriangleToolName = "triangle"
)

// creationTool holds what every drag-to-create tool does with the preview.
type creationTool struct{}

func (creationTool) Activate(*Context)        {}
func (creationTool) Tap(*Context, geom.Point) {}

func (creationTool) Deactivate(ctx *Context) {
	ctx.ToolSettings.Preview = nil
}

func (c creationTool) DragCancel(ctx *Context, _ geom.Point) {
	c.discard(ctx)
}

func (creationTool) discard(ctx *Context) {
	ctx.ToolSettings.Preview = nil
	ctx.ToolSettings.MarkDirty()
}

// SettingsChanged restyles the shape being drawn.
func (creationTool) SettingsChanged(ctx *Context, s shape.Settings) {
	if p := ctx.ToolSettings.Preview; p != nil {
		p.ApplySettings(s)
		ctx.ToolSettings.MarkDirty()
	}
}

// commit moves the preview into the drawing as one AddShape, unless its
// extent is under MinShapeSize.
func (c creationTool) commit(ctx *Context, extent geom.Rect) {
	p := ctx.ToolSettings.Preview
	c.discard(ctx)
	if p == nil || (extent.Width < MinShapeSize && extent.Height < MinShapeSize) {
		return
	}
	ctx.Operations.Apply(operation.NewAddShape(p, -1))
}

// PenTool draws freehand bezier strokes.
type PenTool struct {
	creationTool
	points []geom.Point
}

func NewPenTool() *PenTool { return &PenTool{} }

func (t *PenTool) Name() string { return PenToolName }

func (t *PenTool) DragStart(ctx *Context, p geom.Point) {
	t.points = []geom.Point{p}
	t.updatePreview(ctx)
}

func (t *PenTool) DragContinue(ctx *Context, p geom.Point) {
	if len(t.points) == 0 {
		t.DragStart(ctx, p)
		return
	}
	if p.Distance(t.points[len(t.points)-1]) < MinShapeSize {
		return
	}
	t.points = append(t.points, p)
	t.updatePreview(ctx)
}

func (t *PenTool) DragEnd(ctx *Context, p geom.Point) {
	t.DragContinue(ctx, p)
	path := SmoothPath(t.points)
	t.points = nil
	t.commit(ctx, path.Bounds())
}

func (t *PenTool) DragCancel(ctx *Context, p geom.Point) {
	t.points = nil
	t.creationTool.DragCancel(ctx, p)
}

func (t *PenTool) updatePreview(ctx *Context) {
	path := SmoothPath(t.points)
	s, ok := ctx.ToolSettings.Preview.(*shape.BezierShape)
	if ok && len(t.points) > 1 {
		s.SetLocalPath(path)
	} else {
		s = shape.NewBezier(path)
	}
	s.ApplySettings(ctx.UserSettings.Settings())
	ctx.ToolSettings.Preview = s
	ctx.ToolSettings.MarkDirty()
}

// SmoothPath runs quadratic segments through the midpoints of successive
// points, ending on the last point.
func SmoothPath(pts []geom.Point) geom.Path {
	var p geom.Path
	if len(pts) == 0 {
		return p
	}
	p.MoveTo(pts[0])
	if len(pts) == 1 {
		return p
	}
	for i := 1; i < len(pts)-1; i++ {
		mid := pts[i].Add(pts[i+1]).Mul(0.5)
		p.QuadTo(pts[i], mid)
	}
	p.LineTo(pts[len(pts)-1])
	return p
}

// TwoPointTool drags out a shape from the press point to the pointer.
type TwoPointTool struct {
	creationTool
	name     string
	newShape func(a, b geom.Point) shape.Shape
	start    geom.Point
	active   bool
}

func NewTwoPointTool(name string, newShape func(a, b geom.Point) shape.Shape) *TwoPointTool {
	return &TwoPointTool{name: name, newShape: newShape}
}

func NewRectTool() *TwoPointTool {
	return NewTwoPointTool(RectToolName, func(a, b geom.Point) shape.Shape { return shape.NewRect(a, b) })
}

func NewEllipseTool() *TwoPointTool {
	return NewTwoPointTool(EllipseToolName, func(a, b geom.Point) shape.Shape { return shape.NewEllipse(a, b) })
}

func NewLineTool() *TwoPointTool {
	return NewTwoPointTool(LineToolName, func(a, b geom.Point) shape.Shape { return shape.NewLine(a, b) })
}

func NewTriangleTool() *TwoPointTool {
	return NewTwoPointTool(TriangleToolName, func(a, b geom.Point) shape.Shape { return shape.NewIsoscelesTriangle(a, b) })
}

func (t *TwoPointTool) Name() string { return t.name }

func (t *TwoPointTool) DragStart(ctx *Context, p geom.Point) {
	t.start, t.active = p, true
	s := t.newShape(p, p)
	s.ApplySettings(ctx.UserSettings.Settings())
	ctx.ToolSettings.Preview = s
	ctx.ToolSettings.MarkDirty()
}

func (t *TwoPointTool) DragContinue(ctx *Context, p geom.Point) {
	if !t.active {
		t.DragStart(ctx, p)
		return
	}
	if ps, ok := ctx.ToolSettings.Preview.(shape.PointSettable); ok {
		ps.SetPoints(t.start, p)
		ctx.ToolSettings.MarkDirty()
	}
}

func (t *TwoPointTool) DragEnd(ctx *Context, p geom.Point) {
	if !t.active {
		return
	}
	t.DragContinue(ctx, p)
	t.active = false
	t.commit(ctx, geom.RectFromPoints(t.start, p))
}

func (t *TwoPointTool) DragCancel(ctx *Context, p geom.Point) {
	t.active = false
	t.creationTool.DragCancel(ctx, p)
}
