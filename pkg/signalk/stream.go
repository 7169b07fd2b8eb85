package signalk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const streamPath = "/signalk/v1/stream?subscribe=all"

// ErrStreamClosed is returned by SendDelta after the stream is closed.
var ErrStreamClosed = errors.New("signal k stream is closed")

// StreamClient dials the Signal K WebSocket stream.
type StreamClient struct {
	Dialer *websocket.Dialer
	Logger zerolog.Logger

	// WriteTimeout bounds a single SendDelta. Zero means no deadline.
	WriteTimeout time.Duration
}

// DefaultWriteTimeout is the write deadline used by NewStreamClient.
const DefaultWriteTimeout = 5 * time.Second

// NewStreamClient returns a client using the default dialer with a timeout.
func NewStreamClient(handshakeTimeout time.Duration, logger zerolog.Logger) *StreamClient {
	return &StreamClient{
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		Logger:       logger,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Connect opens the stream on the server at root, authenticated with token.
func (c *StreamClient) Connect(ctx context.Context, root, token string) (*Stream, error) {
	url := wsURL(root, streamPath)
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.Dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open stream %s: status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to open stream %s: %w", url, err)
	}
	c.Logger.Info().Str("url", url).Msg("Signal K stream connected")

	s := &Stream{
		conn:         conn,
		logger:       c.Logger,
		writeTimeout: c.WriteTimeout,
		done:         make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Stream is an open Signal K WebSocket connection. SendDelta may be called
// from several goroutines.
type Stream struct {
	conn         *websocket.Conn
	logger       zerolog.Logger
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool

	done    chan struct{}
	errOnce sync.Once
	err     error
}

// SendDelta writes one delta message. A peer that stops reading makes it
// fail once the write timeout expires.
func (s *Stream) SendDelta(d Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	if err := s.conn.WriteJSON(d); err != nil {
		return fmt.Errorf("failed to send delta: %w", err)
	}
	return nil
}

// Done is closed when the server side of the stream goes away.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the read side, if any.
func (s *Stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close sends a close frame and releases the connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.mu.Unlock()

	return s.conn.Close()
}

// readLoop drains server messages. The hello message and echoed deltas are
// only logged.
func (s *Stream) readLoop() {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return
		}
		s.logger.Trace().Bytes("message", message).Msg("Signal K stream message")
	}
}

func (s *Stream) finish(err error) {
	s.errOnce.Do(func() {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			err = nil
		}
		s.err = err
		close(s.done)
	})
}
