package lolcat

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/rs/zerolog"
)

const (
	// DefaultFrequency is the default speed at which colors cycle per unit of index.
	DefaultFrequency = 0.1
	// DefaultSpread is the default divisor applied to the line and column offset.
	DefaultSpread = 3.0
)

// Params holds the immutable gradient configuration.
type Params struct {
	Frequency float64 // Cycle speed of the gradient
	Spread    float64 // Divisor of the combined line/column offset; higher is smoother
	Start     int     // Initial line counter value
}

// DefaultParams returns the default gradient parameters with a start offset of 0.
func DefaultParams() Params {
	return Params{
		Frequency: DefaultFrequency,
		Spread:    DefaultSpread,
	}
}

// Validate reports whether the parameters can produce a gradient.
func (p Params) Validate() error {
	if math.IsNaN(p.Frequency) || math.IsInf(p.Frequency, 0) {
		return fmt.Errorf("frequency must be a finite number, got %v", p.Frequency)
	}
	if math.IsNaN(p.Spread) || math.IsInf(p.Spread, 0) {
		return fmt.Errorf("spread must be a finite number, got %v", p.Spread)
	}
	if p.Spread == 0 {
		return errors.New("spread must not be zero")
	}
	return nil
}

// Position returns the gradient index of the cell at column on the line with the
// given counter value.
func (p Params) Position(counter, column int) float64 {
	return float64(counter+column) / p.Spread
}

// Painter renders lines of text with the rainbow gradient. A Painter is immutable and safe
// for concurrent use; the line counter is always passed in by the caller.
type Painter struct {
	log       zerolog.Logger
	params    Params
	graphemes bool
}

// New creates and returns a new Painter. Without options the default parameters are used.
func New(opts ...Option) *Painter {
	cfg := options{
		params: DefaultParams(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Painter{
		log:       cfg.logger.With().Str("pkg", "lolcat").Logger(),
		params:    cfg.params,
		graphemes: cfg.graphemes,
	}
	p.log.Debug().
		Float64("frequency", p.params.Frequency).
		Float64("spread", p.params.Spread).
		Int("start", p.params.Start).
		Bool("graphemes", p.graphemes).
		Msg("Painter created")

	return p
}

// Params returns the gradient parameters of the Painter.
func (p *Painter) Params() Params {
	return p.params
}

// Color returns the palette index of the cell at column on the line with the given counter.
func (p *Painter) Color(counter, column int) PaletteIndex {
	return Quantize(Rainbow(p.params.Frequency, p.params.Position(counter, column)))
}

// AppendLine appends text rendered for the given line counter to dst, followed by a
// newline. Every code point is one cell, wrapped in its own color sequence and a reset;
// with WithGraphemes a whole grapheme cluster is one cell instead. The text must not
// contain the line terminator.
func (p *Painter) AppendLine(dst []byte, counter int, text string) []byte {
	if p.graphemes {
		return p.appendClusters(dst, counter, text)
	}

	for column := 0; len(text) > 0; column++ {
		_, size := utf8.DecodeRuneInString(text)
		dst = AppendCell(dst, p.Color(counter, column), text[:size])
		text = text[size:]
	}
	return append(dst, '\n')
}

func (p *Painter) appendClusters(dst []byte, counter int, text string) []byte {
	column := 0
	state := -1
	for len(text) > 0 {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		dst = AppendCell(dst, p.Color(counter, column), cluster)
		column++
	}
	return append(dst, '\n')
}

// Line returns text rendered for the given line counter, including the trailing newline.
func (p *Painter) Line(counter int, text string) string {
	return string(p.AppendLine(make([]byte, 0, len(text)*16+1), counter, text))
}

// Option configures a Painter.
type Option func(*options)

// options stores the configuration for a Painter.
type options struct {
	params    Params
	graphemes bool
	logger    zerolog.Logger
}

// WithParams replaces all gradient parameters.
func WithParams(params Params) Option { return func(o *options) { o.params = params } }

// WithFrequency sets the gradient frequency.
func WithFrequency(f float64) Option { return func(o *options) { o.params.Frequency = f } }

// WithSpread sets the gradient spread.
func WithSpread(s float64) Option { return func(o *options) { o.params.Spread = s } }

// WithStart sets the initial line counter value.
func WithStart(n int) Option { return func(o *options) { o.params.Start = n } }

// WithGraphemes makes every grapheme cluster, rather than every code point, one cell.
func WithGraphemes(enabled bool) Option { return func(o *options) { o.graphemes = enabled } }

// WithLogger sets the logger for the Painter.
func WithLogger(logger zerolog.Logger) Option { return func(o *options) { o.logger = logger } }
