package geom

import (
	"encoding/json"
	"fmt"
	"math"

	"honnef.co/go/curve"
)

const (
	// arcAccuracy bounds the arc length error of curved segments.
	arcAccuracy = 1e-3

	// ellipseKappa is the cubic bezier control distance for a quarter arc:
	// 4 * (sqrt(2) - 1) / 3.
	ellipseKappa = 0.5522847498
)

// Verb identifies a path element.
type Verb int

const (
	MoveTo Verb = iota + 1
	LineTo
	QuadTo
	CubicTo
	Close
)

// Element is a single path instruction. Only the first PointCount(Verb)
// entries of Points are meaningful.
type Element struct {
	Verb   Verb
	Points [3]Point
}

// PointCount returns how many points the verb consumes.
func (v Verb) PointCount() int {
	switch v {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubicTo:
		return 3
	default:
		return 0
	}
}

// Path is a sequence of move/line/curve/close elements, possibly holding
// several subpaths. The zero value is an empty path.
type Path struct {
	bez curve.BezPath
}

// Polyline is a flattened subpath.
type Polyline struct {
	Points []Point
	Closed bool
}

func toCurve(p Point) curve.Point {
	return curve.Point{X: p.X, Y: p.Y}
}

func fromCurve(p curve.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

// MoveTo starts a new subpath at p.
func (p *Path) MoveTo(pt Point) { p.bez.MoveTo(toCurve(pt)) }

// LineTo draws a straight line to pt.
func (p *Path) LineTo(pt Point) { p.bez.LineTo(toCurve(pt)) }

// QuadTo draws a quadratic bezier with control point c ending at pt.
func (p *Path) QuadTo(c, pt Point) { p.bez.QuadTo(toCurve(c), toCurve(pt)) }

// CubicTo draws a cubic bezier with control points c1, c2 ending at pt.
func (p *Path) CubicTo(c1, c2, pt Point) {
	p.bez.CubicTo(toCurve(c1), toCurve(c2), toCurve(pt))
}

// Close closes the current subpath.
func (p *Path) Close() { p.bez.ClosePath() }

// IsEmpty reports whether the path holds no elements.
func (p Path) IsEmpty() bool {
	return len(p.bez) == 0
}

// Len returns the number of elements.
func (p Path) Len() int {
	return len(p.bez)
}

// Elements returns the path elements in order.
func (p Path) Elements() []Element {
	els := make([]Element, 0, len(p.bez))
	for _, el := range p.bez {
		e := Element{Points: [3]Point{fromCurve(el.P0), fromCurve(el.P1), fromCurve(el.P2)}}
		switch el.Kind {
		case curve.MoveToKind:
			e.Verb = MoveTo
		case curve.LineToKind:
			e.Verb = LineTo
		case curve.QuadToKind:
			e.Verb = QuadTo
		case curve.CubicToKind:
			e.Verb = CubicTo
		case curve.ClosePathKind:
			e.Verb = Close
		default:
			continue
		}
		els = append(els, e)
	}
	return els
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	return Path{bez: append(curve.BezPath(nil), p.bez...)}
}

// Transform returns a copy of the path with m applied to every point.
func (p Path) Transform(m Matrix) Path {
	out := make(curve.BezPath, len(p.bez))
	for i, el := range p.bez {
		n := el.Kind
		out[i] = curve.PathElement{Kind: n}
		switch n {
		case curve.MoveToKind, curve.LineToKind:
			out[i].P0 = toCurve(m.TransformPoint(fromCurve(el.P0)))
		case curve.QuadToKind:
			out[i].P0 = toCurve(m.TransformPoint(fromCurve(el.P0)))
			out[i].P1 = toCurve(m.TransformPoint(fromCurve(el.P1)))
		case curve.CubicToKind:
			out[i].P0 = toCurve(m.TransformPoint(fromCurve(el.P0)))
			out[i].P1 = toCurve(m.TransformPoint(fromCurve(el.P1)))
			out[i].P2 = toCurve(m.TransformPoint(fromCurve(el.P2)))
		}
	}
	return Path{bez: out}
}

// Bounds returns the box around every on-curve and control point. It always
// encloses the rendered outline.
func (p Path) Bounds() Rect {
	var pts []Point
	for _, el := range p.Elements() {
		for i := 0; i < el.Verb.PointCount(); i++ {
			pts = append(pts, el.Points[i])
		}
	}
	return RectFromPoints(pts...)
}

// Length returns the arc length of the path, closing segments included.
func (p Path) Length() float64 {
	total := 0.0
	for _, seg := range p.segments() {
		total += segmentLength(seg)
	}
	return total
}

// PointAtFraction returns the point at fraction f of the total arc length.
// f is clamped to [0, 1]. An empty path yields the zero point.
func (p Path) PointAtFraction(f float64) Point {
	f = math.Max(0, math.Min(1, f))

	segs := p.segments()
	if len(segs) == 0 {
		if len(p.bez) > 0 {
			return fromCurve(p.bez[0].P0)
		}
		return Point{}
	}

	lengths := make([]float64, len(segs))
	total := 0.0
	for i, seg := range segs {
		lengths[i] = segmentLength(seg)
		total += lengths[i]
	}

	target := f * total
	walked := 0.0
	for i, seg := range segs {
		l := lengths[i]
		if l > 0 && walked+l >= target {
			if seg.Kind == curve.LineKind {
				a, b := fromCurve(seg.P0), fromCurve(seg.P1)
				return a.Add(b.Sub(a).Mul((target - walked) / l))
			}
			t := seg.SolveForArclen(target-walked, arcAccuracy)
			return fromCurve(seg.Eval(t))
		}
		walked += l
	}
	return fromCurve(segs[len(segs)-1].Eval(1))
}

// segmentLength is exact for lines and within arcAccuracy for curves.
func segmentLength(seg curve.PathSegment) float64 {
	if seg.Kind == curve.LineKind {
		return fromCurve(seg.P1).Distance(fromCurve(seg.P0))
	}
	return seg.Arclen(arcAccuracy)
}

// segments splits the path into self-contained segments. A close element
// contributes the line back to the subpath start when it is not already
// there.
func (p Path) segments() []curve.PathSegment {
	var (
		segs       []curve.PathSegment
		start, cur curve.Point
	)
	for _, el := range p.bez {
		switch el.Kind {
		case curve.MoveToKind:
			start, cur = el.P0, el.P0
		case curve.LineToKind:
			segs = append(segs, curve.PathSegment{Kind: curve.LineKind, P0: cur, P1: el.P0})
			cur = el.P0
		case curve.QuadToKind:
			segs = append(segs, curve.PathSegment{Kind: curve.QuadKind, P0: cur, P1: el.P0, P2: el.P1})
			cur = el.P1
		case curve.CubicToKind:
			segs = append(segs, curve.PathSegment{Kind: curve.CubicKind, P0: cur, P1: el.P0, P2: el.P1, P3: el.P2})
			cur = el.P2
		case curve.ClosePathKind:
			if cur != start {
				segs = append(segs, curve.PathSegment{Kind: curve.LineKind, P0: cur, P1: start})
			}
			cur = start
		}
	}
	return segs
}

// Contains reports whether pt lies inside the filled path using the non-zero
// winding rule. Open subpaths are treated as closed.
func (p Path) Contains(pt Point) bool {
	if len(p.bez) == 0 {
		return false
	}
	if !p.Bounds().Contains(pt) {
		return false
	}
	return p.closed().Winding(toCurve(pt)) != 0
}

func (p Path) closed() curve.BezPath {
	out := make(curve.BezPath, 0, len(p.bez)+4)
	open := false
	for _, el := range p.bez {
		switch el.Kind {
		case curve.MoveToKind:
			if open {
				out = append(out, curve.ClosePath())
			}
			open = true
		case curve.ClosePathKind:
			open = false
		}
		out = append(out, el)
	}
	if open {
		out = append(out, curve.ClosePath())
	}
	return out
}

// Flatten approximates the path with line segments no further than
// tolerance from the true curve.
func (p Path) Flatten(tolerance float64) []Polyline {
	var (
		lines []Polyline
		cur   *Polyline
	)
	for el := range p.bez.Flatten(tolerance) {
		switch el.Kind {
		case curve.MoveToKind:
			lines = append(lines, Polyline{Points: []Point{fromCurve(el.P0)}})
			cur = &lines[len(lines)-1]
		case curve.LineToKind:
			if cur == nil {
				lines = append(lines, Polyline{})
				cur = &lines[len(lines)-1]
			}
			cur.Points = append(cur.Points, fromCurve(el.P0))
		case curve.ClosePathKind:
			if cur != nil {
				cur.Closed = true
			}
		}
	}
	return lines
}

// NewRectPath returns a closed path around r starting at its top-left
// corner and running clockwise in a y-down space.
func NewRectPath(r Rect) Path {
	c := r.Corners()
	var p Path
	p.MoveTo(c[0])
	p.LineTo(c[1])
	p.LineTo(c[2])
	p.LineTo(c[3])
	p.Close()
	return p
}

// NewEllipsePath returns four cubic arcs inscribed in r, starting at the
// rightmost point and running clockwise in a y-down space.
func NewEllipsePath(r Rect) Path {
	s := r.Standardized()
	c := s.Center()
	rx, ry := s.Width/2, s.Height/2
	kx, ky := rx*ellipseKappa, ry*ellipseKappa

	var p Path
	p.MoveTo(Pt(c.X+rx, c.Y))
	p.CubicTo(Pt(c.X+rx, c.Y+ky), Pt(c.X+kx, c.Y+ry), Pt(c.X, c.Y+ry))
	p.CubicTo(Pt(c.X-kx, c.Y+ry), Pt(c.X-rx, c.Y+ky), Pt(c.X-rx, c.Y))
	p.CubicTo(Pt(c.X-rx, c.Y-ky), Pt(c.X-kx, c.Y-ry), Pt(c.X, c.Y-ry))
	p.CubicTo(Pt(c.X+kx, c.Y-ry), Pt(c.X+rx, c.Y-ky), Pt(c.X+rx, c.Y))
	p.Close()
	return p
}

// NewLinePath returns an open segment from a to b.
func NewLinePath(a, b Point) Path {
	return NewPolygonPath(false, a, b)
}

// NewPolygonPath returns a path through pts, closed when closed is set.
func NewPolygonPath(closed bool, pts ...Point) Path {
	var p Path
	for i, pt := range pts {
		if i == 0 {
			p.MoveTo(pt)
			continue
		}
		p.LineTo(pt)
	}
	if closed && len(pts) > 0 {
		p.Close()
	}
	return p
}

// MarshalJSON encodes the path as drawing commands:
// [["M",x,y],["L",x,y],["Q",cx,cy,x,y],["C",c1x,c1y,c2x,c2y,x,y],["Z"]].
func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Commands())
}

// Commands returns the path in the command form used by MarshalJSON.
func (p Path) Commands() [][]any {
	cmds := make([][]any, 0, len(p.bez))
	for _, el := range p.Elements() {
		var cmd []any
		switch el.Verb {
		case MoveTo:
			cmd = []any{"M"}
		case LineTo:
			cmd = []any{"L"}
		case QuadTo:
			cmd = []any{"Q"}
		case CubicTo:
			cmd = []any{"C"}
		case Close:
			cmd = []any{"Z"}
		}
		for i := 0; i < el.Verb.PointCount(); i++ {
			cmd = append(cmd, el.Points[i].X, el.Points[i].Y)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// UnmarshalJSON decodes the command form written by MarshalJSON.
func (p *Path) UnmarshalJSON(data []byte) error {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode path: %w", err)
	}

	var out Path
	for i, cmd := range raw {
		if len(cmd) == 0 {
			return fmt.Errorf("decode path: empty command at %d", i)
		}
		var op string
		if err := json.Unmarshal(cmd[0], &op); err != nil {
			return fmt.Errorf("decode path: command %d: %w", i, err)
		}
		nums := make([]float64, len(cmd)-1)
		for j, v := range cmd[1:] {
			if err := json.Unmarshal(v, &nums[j]); err != nil {
				return fmt.Errorf("decode path: command %d: %w", i, err)
			}
		}

		want := map[string]int{"M": 2, "L": 2, "Q": 4, "C": 6, "Z": 0}
		n, ok := want[op]
		if !ok {
			return fmt.Errorf("decode path: unknown command %q", op)
		}
		if len(nums) != n {
			return fmt.Errorf("decode path: %q takes %d numbers, got %d", op, n, len(nums))
		}

		switch op {
		case "M":
			out.MoveTo(Pt(nums[0], nums[1]))
		case "L":
			out.LineTo(Pt(nums[0], nums[1]))
		case "Q":
			out.QuadTo(Pt(nums[0], nums[1]), Pt(nums[2], nums[3]))
		case "C":
			out.CubicTo(Pt(nums[0], nums[1]), Pt(nums[2], nums[3]), Pt(nums[4], nums[5]))
		case "Z":
			out.Close()
		}
	}
	*p = out
	return nil
}
