package render

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// TextFace is the face used for measuring and rasterising text. Sizes are
// obtained by scaling its 13px cell.
var TextFace font.Face = basicfont.Face7x13

// TextFaceHeight is the native line height of TextFace in pixels.
const TextFaceHeight = 13

// MeasureText returns the width and height of text drawn at size.
func MeasureText(text string, size float64) (w, h float64) {
	if text == "" || size <= 0 {
		return 0, 0
	}
	adv := font.MeasureString(TextFace, text)
	scale := size / TextFaceHeight
	return float64(adv) / 64 * scale, size
}
