// Package sampler picks representative points along a shape's outline.
package sampler

import (
	"math"

	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/shape"
)

// Step is the arc length between samples on generic paths.
const Step = 30.0

// Strategy returns the fractions of the path length to sample at.
type Strategy func(s shape.Shape, length float64) []float64

var strategies = map[shape.Kind]Strategy{
	shape.KindEllipse: ellipseFractions,
	shape.KindRect:    rectFractions,
}

// Sample returns points on the transformed outline of s in fraction order.
// Shapes without a path, or with a zero-length one, yield nothing.
func Sample(s shape.Shape) []geom.Point {
	pb, ok := s.(shape.PathBacked)
	if !ok {
		return nil
	}
	path := pb.Path()
	length := path.Length()
	if length <= 0 {
		return nil
	}

	strategy, ok := strategies[s.Kind()]
	if !ok {
		strategy = stepFractions
	}
	fractions := strategy(s, length)
	if fractions == nil {
		fractions = stepFractions(s, length)
	}

	points := make([]geom.Point, len(fractions))
	for i, f := range fractions {
		points[i] = path.PointAtFraction(f)
	}
	return points
}

type squareRected interface {
	SquareRect() geom.Rect
}

type rected interface {
	Rect() geom.Rect
}

// ellipseDivisor grows the sample count with the ellipse's square size.
func ellipseDivisor(width float64) int {
	switch {
	case width < 100:
		return 12
	case width < 150:
		return 15
	case width < 250:
		return 24
	default:
		return 36
	}
}

func ellipseFractions(s shape.Shape, _ float64) []float64 {
	sq, ok := s.(squareRected)
	if !ok {
		return nil
	}
	n := ellipseDivisor(sq.SquareRect().Width)
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / float64(n)
	}
	return out
}

// rectFractions samples corners and edge midpoints. Square rects use
// eight even steps; others place them by edge length.
func rectFractions(s shape.Shape, _ float64) []float64 {
	r, ok := s.(rected)
	if !ok {
		return nil
	}
	rect := r.Rect()
	w, h := rect.Width, rect.Height
	if w == h {
		out := make([]float64, 8)
		for i := range out {
			out[i] = float64(i) / 8
		}
		return out
	}
	per := 2*w + 2*h
	offsets := []float64{0, w / 2, w, w + h/2, w + h, w + h + w/2, 2*w + h, 2*w + h + h/2}
	out := make([]float64, len(offsets))
	for i, o := range offsets {
		out[i] = o / per
	}
	return out
}

// stepFractions walks the path every Step units.
func stepFractions(_ shape.Shape, length float64) []float64 {
	step := Step / length
	n := int(math.Ceil(1/step - 1e-9))
	out := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		out = append(out, float64(k)*step)
	}
	return out
}
