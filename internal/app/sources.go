package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/jkbrsn/lolcat/internal/source"
)

// pendingSource is a source named on the command line. Files are opened up front so a
// missing file fails the run before any output; WebSocket sources connect when reached.
type pendingSource struct {
	name   string
	src    source.Source
	dial   func(ctx context.Context) (source.Source, error)
	cancel func() bool
}

// open returns the source, connecting to it first if needed.
func (p *pendingSource) open(ctx context.Context) (source.Source, error) {
	if p.src != nil {
		return p.src, nil
	}
	src, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	p.src = src
	return src, nil
}

// close releases the source if it was opened.
func (p *pendingSource) close() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.src != nil {
		_ = p.src.Close()
	}
}

// prepareSources resolves names into sources in order. No names selects standard input.
func (c *Colorizer) prepareSources(names []string) ([]*pendingSource, error) {
	if len(names) == 0 {
		names = []string{source.StdinName}
	}

	sources := make([]*pendingSource, 0, len(names))
	fail := func(err error) ([]*pendingSource, error) {
		for _, p := range sources {
			p.close()
		}
		return nil, err
	}

	for _, name := range names {
		switch {
		case name == source.StdinName:
			sources = append(sources, c.stdinSource())
		case source.IsWebSocketURL(name):
			target, err := url.Parse(name)
			if err != nil {
				return fail(fmt.Errorf("error parsing WebSocket URL: %w", err))
			}
			sources = append(sources, &pendingSource{
				name: name,
				dial: func(ctx context.Context) (source.Source, error) {
					return c.dialStream(ctx, target)
				},
			})
		default:
			r, err := source.OpenFile(name)
			if err != nil {
				return fail(err)
			}
			sources = append(sources, &pendingSource{name: name, src: r})
		}
	}

	return sources, nil
}

// stdinSource returns a source over standard input. Closing the input on cancellation
// unblocks a pending read.
func (c *Colorizer) stdinSource() *pendingSource {
	in := c.Stdin
	if in == nil {
		in = os.Stdin
	}
	p := &pendingSource{name: source.StdinName}
	p.dial = func(ctx context.Context) (source.Source, error) {
		if closer, ok := in.(io.Closer); ok {
			p.cancel = context.AfterFunc(ctx, func() { _ = closer.Close() })
		}
		return source.NewReader(source.StdinName, in), nil
	}
	return p
}

// dialStream connects to a WebSocket source and sends the configured text message.
func (c *Colorizer) dialStream(ctx context.Context, target *url.URL) (source.Source, error) {
	header, err := parseHeaders(c.Headers)
	if err != nil {
		return nil, err
	}

	s, err := source.Dial(
		ctx,
		target,
		header,
		source.WithTimeout(c.Timeout),
		source.WithLogger(c.logger()),
	)
	if err != nil {
		return nil, handleConnectionError(err, target.String())
	}

	if c.TextMessage != "" {
		if err := s.Send(c.TextMessage); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}
