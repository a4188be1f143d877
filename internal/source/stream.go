package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// defaultHandshakeTimeout bounds the WebSocket opening handshake.
	defaultHandshakeTimeout = 5 * time.Second
	// readChanBufferSize is the size of the read channel.
	readChanBufferSize = 8
	// closeGracePeriod bounds the close frame write and the read pump shutdown.
	closeGracePeriod = time.Second
)

// Stream is a Source reading text messages from a WebSocket connection. Each message
// is split on newlines; binary messages are skipped.
type Stream struct {
	log  zerolog.Logger
	name string

	conn     atomic.Pointer[websocket.Conn]
	readChan chan *wsRead
	pending  []string
	err      error

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wgPump    sync.WaitGroup

	// instance configuration
	timeout time.Duration
}

// wsRead holds the data read from the WebSocket connection.
type wsRead struct {
	data        []byte
	err         error
	messageType int
}

// Dial connects to target and starts reading from it. The stream ends when the peer closes
// the connection, ctx is cancelled, or no message arrives within the read timeout.
func Dial(
	ctx context.Context,
	target *url.URL,
	header http.Header,
	opts ...Option,
) (*Stream, error) {
	cfg := options{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// The read timeout only applies once connected
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: defaultHandshakeTimeout,
	}

	headers := http.Header{}
	// Preserve multi-value headers by copying each value individually
	for name, values := range header {
		for _, v := range values {
			headers.Add(name, v)
		}
	}

	log := cfg.logger.With().Str("pkg", "source").Str("url", target.Redacted()).Logger()
	log.Debug().Msg("Dialing WebSocket source")

	conn, resp, err := dialer.DialContext(ctx, target.String(), headers)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			defer func() {
				_ = resp.Body.Close()
			}()
			return nil, fmt.Errorf("failed dial response '%s': %w", string(body), err)
		}
		return nil, fmt.Errorf("failed to establish WebSocket connection: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s := &Stream{
		log:      log,
		name:     target.Redacted(),
		readChan: make(chan *wsRead, readChanBufferSize),
		ctx:      streamCtx,
		cancel:   cancel,
		timeout:  cfg.timeout,
	}
	s.conn.Store(conn)
	// Unblock a pending read as soon as the caller gives up
	context.AfterFunc(streamCtx, func() { _ = s.Close() })

	s.wgPump.Add(1)
	go s.readPump()

	log.Debug().Msg("WebSocket source connected")
	return s, nil
}

// Name returns the URL of the stream.
func (s *Stream) Name() string {
	return s.name
}

// Send writes a text message to the connection.
func (s *Stream) Send(text string) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	conn := s.conn.Load()
	if conn == nil {
		return errors.New("connection closed")
	}
	if s.timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			s.log.Debug().Err(err).Msg("Failed to set write deadline")
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	s.log.Debug().Int("bytes", len(text)).Msg("Message sent")
	return nil
}

// ReadLine returns the next line received on the stream, or io.EOF once the peer has
// closed the connection or the read timeout elapsed.
func (s *Stream) ReadLine() (string, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return "", s.err
		}
		messageType, data, err := s.readMessage()
		if err != nil {
			s.err = err
			return "", err
		}
		if messageType != websocket.TextMessage {
			s.log.Debug().Int("type", messageType).Msg("Skipping non-text message")
			continue
		}
		s.pending = splitMessage(string(data))
	}

	line := s.pending[0]
	s.pending = s.pending[1:]
	return line, nil
}

// readMessage returns the next message from the read pump, mapping the ways a stream can
// end onto io.EOF.
func (s *Stream) readMessage() (int, []byte, error) {
	select {
	case <-s.ctx.Done():
		return 0, nil, s.ctx.Err()
	case msg := <-s.readChan:
		if msg.err == nil {
			return msg.messageType, msg.data, nil
		}

		if websocket.IsCloseError(
			msg.err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived,
		) {
			s.log.Debug().Msg("Peer closed the connection")
			return 0, nil, io.EOF
		}
		var netErr net.Error
		if errors.As(msg.err, &netErr) && netErr.Timeout() {
			s.log.Info().Dur("timeout", s.timeout).Msg("No message within read timeout")
			return 0, nil, io.EOF
		}
		if s.ctx.Err() != nil {
			return 0, nil, s.ctx.Err()
		}
		return 0, nil, fmt.Errorf("failed to read from %s: %w", s.name, msg.err)
	}
}

// readPump reads messages from the WebSocket connection and sends them to the read channel.
func (s *Stream) readPump() {
	defer s.wgPump.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn := s.conn.Load()
		if conn == nil {
			s.log.Debug().Msg("Connection already closed, exiting read pump")
			return
		}

		if s.timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
				s.log.Debug().Err(err).Msg("Failed to set read deadline")
			}
		}

		messageType, p, err := conn.ReadMessage()
		if err != nil {
			select {
			case s.readChan <- &wsRead{err: err, messageType: messageType}:
			case <-s.ctx.Done():
				s.log.Debug().Msg("Context done, dropping error read")
			}
			return
		}

		select {
		case s.readChan <- &wsRead{data: p, messageType: messageType}:
		case <-s.ctx.Done():
			s.log.Debug().Msg("Context done, dropping read message")
			return
		}
	}
}

// Close closes the WebSocket connection and stops the read pump. It is safe to call Close
// more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		conn := s.conn.Load()
		if conn != nil {
			// Set read deadline to stop reading messages
			if err := conn.SetReadDeadline(time.Now()); err != nil {
				s.log.Debug().Err(err).Msg("Failed to set read deadline")
			}

			formattedCloseMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(
				websocket.CloseMessage,
				formattedCloseMessage,
				time.Now().Add(closeGracePeriod),
			); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				s.log.Debug().Err(err).Msg("Failed to write close message")
			}

			if err := conn.Close(); err != nil {
				s.log.Debug().Err(err).Msg("Failed to close connection")
			}
		}

		done := make(chan struct{})
		go func() {
			s.wgPump.Wait()
			close(done)
		}()

		select {
		case <-done:
			s.conn.Store(nil)
		case <-time.After(closeGracePeriod):
			s.log.Warn().Msg("Timeout closing read pump")
		}
	})
	return nil
}

// splitMessage splits a text message into lines. A single trailing newline does not start
// another line.
func splitMessage(msg string) []string {
	msg = strings.TrimSuffix(msg, "\n")
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Option configures a Stream.
type Option func(*options)

// options stores the configuration for a Stream.
type options struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// WithLogger sets the logger for the Stream.
func WithLogger(logger zerolog.Logger) Option { return func(o *options) { o.logger = logger } }

// WithTimeout sets the read idle timeout; 0 waits indefinitely.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }
