// Package source provides the line sources read by lolcat: files, standard input and
// WebSocket streams.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinName is the argument that selects standard input.
const StdinName = "-"

// Source yields lines of text in input order.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// ReadLine returns the next line without its terminator, or io.EOF when the source
	// is exhausted.
	ReadLine() (string, error)
	// Close releases the resources held by the source.
	Close() error
}

// Reader is a Source reading newline-terminated lines from an io.Reader.
type Reader struct {
	name   string
	r      *bufio.Reader
	closer io.Closer
	done   bool
}

// NewReader returns a Reader over r. If r is an io.Closer other than os.Stdin it is closed
// by Close.
func NewReader(name string, r io.Reader) *Reader {
	rd := &Reader{name: name, r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok && r != os.Stdin {
		rd.closer = c
	}
	return rd
}

// OpenFile opens the named file as a Reader.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return NewReader(path, f), nil
}

// Name returns the name of the source.
func (r *Reader) Name() string {
	return r.name
}

// ReadLine returns the next line. A final line without a terminator is returned before
// io.EOF.
func (r *Reader) ReadLine() (string, error) {
	if r.done {
		return "", io.EOF
	}
	line, err := r.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read %s: %w", r.name, err)
		}
		r.done = true
		if line == "" {
			return "", io.EOF
		}
	}
	return trimTerminator(line), nil
}

// Close closes the underlying reader, unless it is standard input.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// IsWebSocketURL reports whether name selects a WebSocket source.
func IsWebSocketURL(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://")
}

func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
