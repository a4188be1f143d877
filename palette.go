package lolcat

import (
	"math"
	"strconv"
)

// PaletteIndex identifies one of the 256 colors of the ANSI extended palette.
type PaletteIndex uint8

const (
	// cubeBase is the first slot of the 6x6x6 color cube.
	cubeBase = 16
	// grayBase is the first slot of the 24-step grayscale ramp.
	grayBase = 232
	// graySeparation is the largest pairwise channel distance still treated as gray.
	graySeparation = 42.5
	// grayDivisor maps a channel sum (0..765) onto the grayscale ramp.
	grayDivisor = 33
)

// Escape sequences for selecting a palette foreground color and resetting attributes.
const (
	foregroundPrefix = "\x1b[38;5;"
	foregroundSuffix = "m"
	// Reset clears all attributes set by a previous escape sequence.
	Reset = "\x1b[0m"
)

// Quantize returns the palette slot closest to c. Near-gray colors map to the grayscale
// ramp (232-255), everything else to the color cube (16-231).
func Quantize(c RGB) PaletteIndex {
	r, g, b := int(c.R), int(c.G), int(c.B)

	if isGray(r, g, b) {
		// RoundToEven never meets a tie here: an integer sum over the odd divisor 33
		// cannot end in .5.
		step := math.RoundToEven(float64(r+g+b) / grayDivisor)
		return PaletteIndex(grayBase + int(step))
	}

	return PaletteIndex(cubeBase + 36*cubeCoord(r) + 6*cubeCoord(g) + cubeCoord(b))
}

// Index is shorthand for Quantize(c).
func (c RGB) Index() PaletteIndex {
	return Quantize(c)
}

// Foreground returns the escape sequence that selects p as the foreground color.
func Foreground(p PaletteIndex) string {
	return foregroundPrefix + strconv.Itoa(int(p)) + foregroundSuffix
}

// AppendCell appends glyph wrapped in the foreground sequence for p and a reset.
func AppendCell(dst []byte, p PaletteIndex, glyph string) []byte {
	dst = append(dst, foregroundPrefix...)
	dst = strconv.AppendInt(dst, int64(p), 10)
	dst = append(dst, foregroundSuffix...)
	dst = append(dst, glyph...)
	return append(dst, Reset...)
}

// Sprint returns glyph wrapped in the foreground sequence for p and a reset.
func (p PaletteIndex) Sprint(glyph string) string {
	return string(AppendCell(nil, p, glyph))
}

func isGray(r, g, b int) bool {
	return absDiff(r, g) < graySeparation &&
		absDiff(r, b) < graySeparation &&
		absDiff(g, b) < graySeparation
}

func absDiff(a, b int) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}

// cubeCoord buckets a channel into one of the six cube levels (0-5).
func cubeCoord(channel int) int {
	return 6 * channel / 256
}
