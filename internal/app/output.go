package app

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// fdWriter is a writer backed by a file descriptor, such as *os.File.
type fdWriter interface {
	io.Writer
	Fd() uintptr
}

// output returns the destination writer and whether lines should be colored, based on both
// color mode and terminal detection.
func (c *Colorizer) output() (io.Writer, bool) {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}

	terminal := isTerminal(out)
	if f, ok := out.(*os.File); ok && terminal {
		// Translates escape sequences on consoles without native ANSI support
		out = colorable.NewColorable(f)
	}

	return out, colorEnabled(c.ColorMode, terminal)
}

// colorEnabled returns true if color output is enabled for the given color mode.
//
// revive:disable:flag-parameter allow
func colorEnabled(mode string, terminal bool) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	case colorAuto, "":
	default:
		return false
	}

	if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
		return false
	}

	return terminal
}

// isTerminal reports whether w writes to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
