package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jkbrsn/lolcat"
	"github.com/stretchr/testify/require"
)

// writeTempFile writes content to a new file in a test temp dir and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// testColorizer returns a Colorizer writing to a buffer with coloring forced on.
func testColorizer(out *bytes.Buffer) *Colorizer {
	return &Colorizer{
		Params:    lolcat.Params{Frequency: lolcat.DefaultFrequency, Spread: lolcat.DefaultSpread},
		TabWidth:  DefaultTabWidth,
		ColorMode: colorAlways,
		Output:    out,
		Stdin:     strings.NewReader(""),
	}
}

// expectedOutput renders lines the way a run starting at counter start should.
func expectedOutput(params lolcat.Params, start int, lines ...string) string {
	p := lolcat.New(lolcat.WithParams(params))
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(p.Line(start+i+1, line))
	}
	return b.String()
}

// newLineServer starts a WebSocket server that writes messages, then closes normally. If
// echoFirst is set it first waits for a message from the client and echoes it back.
func newLineServer(t *testing.T, echoFirst bool, messages ...string) string {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		outgoing := append([]string(nil), messages...)
		if echoFirst {
			_, greeting, err := conn.ReadMessage()
			if err != nil {
				return
			}
			outgoing = append([]string{string(greeting)}, outgoing...)
		}
		if token := r.Header.Get("X-Token"); token != "" {
			outgoing = append(outgoing, "token "+token)
		}

		for _, msg := range outgoing {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}
