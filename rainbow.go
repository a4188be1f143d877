// Package lolcat colors text with a smoothly varying rainbow gradient for 256-color terminals.
// It maps a per-character position to an RGB color using three phase-shifted sine waves,
// and quantizes that color into the nearest slot of the ANSI 256-color palette.
package lolcat

import "math"

const (
	// waveCenter and waveAmplitude place each sine wave in the 1..255 range.
	waveCenter    = 128
	waveAmplitude = 127
	// channelModulus is 255, not 256. Reference lolcat output depends on the wrap of a
	// 255 channel value to 0, so it is kept for color parity.
	channelModulus = 255
)

// channelShift holds the phase offset of the red, green and blue waves (0, 2π/3, 4π/3).
var channelShift = [3]float64{0, 2 * math.Pi / 3, 4 * math.Pi / 3}

// RGB represents an RGB color value
type RGB struct {
	R, G, B uint8
}

// Rainbow returns the color of the gradient for the given frequency and index.
// Each channel is 128 + 127*sin(frequency*index + shift), truncated toward zero and
// reduced modulo 255, so channels are in [0,254]. A non-finite phase is treated as 0.
func Rainbow(frequency, index float64) RGB {
	phase := frequency * index
	if math.IsNaN(phase) || math.IsInf(phase, 0) {
		phase = 0
	}
	return RGB{
		R: wave(phase, channelShift[0]),
		G: wave(phase, channelShift[1]),
		B: wave(phase, channelShift[2]),
	}
}

// wave computes one channel. The int conversion truncates rather than rounds; both this
// and the modulus match the reference tool byte for byte.
func wave(phase, shift float64) uint8 {
	v := int(math.Sin(phase+shift)*waveAmplitude + waveCenter)
	return uint8(v % channelModulus)
}
