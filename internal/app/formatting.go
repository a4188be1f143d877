package app

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// sgrPattern matches the color and erase-line sequences that input may already carry.
var sgrPattern = regexp.MustCompile(`\x1b\[(\d+)(;\d+)?(;\d+)?[m|K]`)

// widthFunc measures the width of a line segment when placing tab stops.
type widthFunc func(string) int

// codePointWidth counts one column per code point, the unit of a cell by default.
func codePointWidth(s string) int {
	return utf8.RuneCountInString(s)
}

// terminalWidth counts terminal columns, so wide characters count double and combining
// marks count zero. It pairs with grapheme cells.
func terminalWidth(s string) int {
	return runewidth.StringWidth(s)
}

// normalizeLine prepares a line for rendering: trailing whitespace is stripped, existing
// escape sequences are removed and tabs are expanded to spaces.
func normalizeLine(line string, tabWidth int, width widthFunc) string {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	line = sgrPattern.ReplaceAllString(line, "")
	return expandTabs(line, tabWidth, width)
}

// expandTabs replaces each tab with the spaces needed to reach the next tab stop, measuring
// each segment with width.
func expandTabs(line string, tabWidth int, width widthFunc) string {
	if tabWidth <= 0 || !strings.Contains(line, "\t") {
		return line
	}

	segments := strings.Split(line, "\t")
	var b strings.Builder
	b.Grow(len(line) + len(segments)*tabWidth)
	for i, segment := range segments {
		b.WriteString(segment)
		if i < len(segments)-1 {
			b.WriteString(strings.Repeat(" ", tabWidth-width(segment)%tabWidth))
		}
	}
	return b.String()
}

func handleConnectionError(err error, address string) error {
	// Check for specific TLS errors first
	var tlsErr *tls.RecordHeaderError
	if errors.As(err, &tlsErr) {
		return fmt.Errorf("TLS handshake failed connecting to '%s': %w", address, err)
	}

	// Fallback to string checking for specific messages
	errMsg := err.Error()
	if strings.Contains(errMsg, "tls:") || strings.Contains(errMsg, "TLS") {
		return fmt.Errorf("secure WebSocket connection failed to '%s': %w", address, err)
	}

	return fmt.Errorf("WebSocket connection failed to '%s': %w", address, err)
}

func parseHeaders(pairs []string) (http.Header, error) {
	header := http.Header{}
	for _, pair := range pairs {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid header format: %s", pair)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("invalid header format: %s", pair)
		}
		header.Add(key, value)
	}
	return header, nil
}
