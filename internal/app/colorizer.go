// Package app reads lines from the configured sources and writes them colored with the
// rainbow gradient of the lolcat package.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jkbrsn/lolcat"
	"github.com/jkbrsn/lolcat/internal/source"
	"github.com/rs/zerolog"
)

const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"

	// DefaultTabWidth is the column width tabs are expanded to.
	DefaultTabWidth = 8
)

// Colorizer colors the lines of its sources, applying the settings passed to the struct.
type Colorizer struct {
	// Gradient
	Params lolcat.Params // Frequency, spread and starting line counter

	// Input
	TabWidth    int           // Tab stop width used when expanding tabs
	Headers     []string      // HTTP headers for WebSocket sources ("Key: Value")
	TextMessage string        // Text message sent after connecting to a WebSocket source
	Timeout     time.Duration // Read idle timeout of WebSocket sources; 0 waits indefinitely
	Stdin       io.Reader     // Standard input override; os.Stdin when nil

	// Output
	ColorMode string    // Color behavior: "auto", "always", or "never"
	Graphemes bool      // Color grapheme clusters instead of code points; tabs align to terminal columns
	Workers   int       // Lines rendered concurrently; <= 1 renders line by line
	Output    io.Writer // Destination; os.Stdout when nil

	Logger *zerolog.Logger // Optional logger; logging is disabled when nil
}

// Validate checks the settings of the Colorizer.
func (c *Colorizer) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}

	switch c.ColorMode {
	case colorAuto, colorAlways, colorNever, "":
	default:
		return fmt.Errorf("color mode must be auto, always, or never, got %q", c.ColorMode)
	}

	if c.TabWidth <= 0 {
		return fmt.Errorf("tab width must be positive, got %d", c.TabWidth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if _, err := parseHeaders(c.Headers); err != nil {
		return err
	}

	return nil
}

// Run colors every source named in names, in order, and writes the result to the output.
// No names means standard input. The line counter starts at Params.Start and carries over
// from one source to the next. A cancelled ctx stops the run and is returned as its error.
func (c *Colorizer) Run(ctx context.Context, names []string) error {
	log := c.logger()

	sources, err := c.prepareSources(names)
	if err != nil {
		return err
	}
	defer func() {
		for _, src := range sources {
			src.close()
		}
	}()

	out, colored := c.output()
	w := bufio.NewWriter(out)
	painter := lolcat.New(
		lolcat.WithParams(c.Params),
		lolcat.WithGraphemes(c.Graphemes),
		lolcat.WithLogger(log),
	)
	r := renderer{
		painter:  painter,
		colored:  colored,
		tabWidth: c.TabWidth,
		width:    codePointWidth,
	}
	if c.Graphemes {
		r.width = terminalWidth
	}

	log.Debug().
		Bool("colored", colored).
		Int("workers", c.Workers).
		Int("sources", len(sources)).
		Msg("Starting run")

	counter := c.Params.Start
	for _, pending := range sources {
		src, err := pending.open(ctx)
		if err != nil {
			return err
		}

		log.Info().Str("source", src.Name()).Int("counter", counter).Msg("Colorizing source")
		start := counter
		counter, err = c.colorizeSource(ctx, w, r, src, counter)
		if err != nil {
			return err
		}
		log.Info().Str("source", src.Name()).Int("lines", counter-start).Msg("Finished source")
	}

	return nil
}

// colorizeSource writes every line of src and returns the line counter after the last line.
// Each line increments the counter once before it is rendered.
func (c *Colorizer) colorizeSource(
	ctx context.Context,
	w *bufio.Writer,
	r renderer,
	src source.Source,
	counter int,
) (int, error) {
	if c.Workers > 1 {
		return colorizeParallel(ctx, w, r, src, counter, c.Workers)
	}
	return colorizeSequential(ctx, w, r, src, counter)
}

// logger returns the logger of the Colorizer, tagged with the package name.
func (c *Colorizer) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return c.Logger.With().Str("pkg", "app").Logger()
}
