package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jkbrsn/lolcat"
	"github.com/jkbrsn/lolcat/internal/source"
	"golang.org/x/sync/errgroup"
)

// batchSize is the number of lines read before a parallel render pass.
const batchSize = 256

// renderer turns one input line into output bytes.
type renderer struct {
	painter  *lolcat.Painter
	colored  bool
	tabWidth int
	width    widthFunc
}

// appendLine appends the normalized line, colored for counter when coloring is enabled,
// and a trailing newline.
func (r renderer) appendLine(dst []byte, counter int, line string) []byte {
	text := normalizeLine(line, r.tabWidth, r.width)
	if !r.colored {
		dst = append(dst, text...)
		return append(dst, '\n')
	}
	return r.painter.AppendLine(dst, counter, text)
}

// colorizeSequential renders and flushes each line as soon as it is read.
func colorizeSequential(
	ctx context.Context,
	w *bufio.Writer,
	r renderer,
	src source.Source,
	counter int,
) (int, error) {
	buf := make([]byte, 0, 4096) //revive:disable-line:add-constant initial line buffer
	for {
		if err := ctx.Err(); err != nil {
			return counter, err
		}

		line, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			return counter, nil
		}
		if err != nil {
			return counter, readError(ctx, err)
		}

		counter++
		buf = r.appendLine(buf[:0], counter, line)
		if _, err := w.Write(buf); err != nil {
			return counter, fmt.Errorf("failed to write output: %w", err)
		}
		if err := w.Flush(); err != nil {
			return counter, fmt.Errorf("failed to write output: %w", err)
		}
	}
}

// colorizeParallel reads lines in batches, assigns their counters in input order, renders
// the batch on up to workers goroutines and writes it in input order.
func colorizeParallel(
	ctx context.Context,
	w *bufio.Writer,
	r renderer,
	src source.Source,
	counter int,
	workers int,
) (int, error) {
	lines := make([]string, 0, batchSize)
	rendered := make([][]byte, batchSize)

	for {
		lines = lines[:0]
		eof := false
		var readErr error
		for len(lines) < batchSize {
			line, err := src.ReadLine()
			if errors.Is(err, io.EOF) {
				eof = true
				break
			}
			if err != nil {
				// Lines read before the failure are still written, as in sequential mode
				readErr = readError(ctx, err)
				break
			}
			lines = append(lines, line)
		}

		// Counters are fixed here, before any concurrent work starts
		first := counter + 1
		counter += len(lines)

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, line := range lines {
			i, line := i, line
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				rendered[i] = r.appendLine(rendered[i][:0], first+i, line)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return counter, err
		}

		for i := range lines {
			if _, err := w.Write(rendered[i]); err != nil {
				return counter, fmt.Errorf("failed to write output: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return counter, fmt.Errorf("failed to write output: %w", err)
		}

		if readErr != nil {
			return counter, readErr
		}
		if eof {
			return counter, nil
		}
		if err := ctx.Err(); err != nil {
			return counter, err
		}
	}
}

// readError reports a cancelled context in place of the read failure it caused.
func readError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
