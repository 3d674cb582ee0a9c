package interpreter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saker-ai/live-interpreter/internal/protocol"
	"github.com/saker-ai/live-interpreter/internal/session/fsm"
)

const (
	traceHeader      = "X-ClientTraceId"
	closeGracePeriod = time.Second
	writeTimeout     = 5 * time.Second
)

// Client is the session client. Its zero value is not usable; use NewClient.
type Client struct {
	cfg    Config
	sink   OutputSink
	player AudioPlayer
	logger *zap.Logger
	state  *fsm.Machine

	mu      sync.Mutex
	conn    *websocket.Conn
	err     error
	writeMu sync.Mutex

	closing   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	playCtx    context.Context
	playCancel context.CancelFunc
	playback   sync.WaitGroup
}

// NewClient creates an idle client. player may be nil, in which case audio
// fields are ignored.
func NewClient(cfg Config, sink OutputSink, player AudioPlayer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = discardSink{}
	}
	if strings.TrimSpace(cfg.TraceID) == "" {
		cfg.TraceID = uuid.NewString()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}

	playCtx, playCancel := context.WithCancel(context.Background())
	return &Client{
		cfg:        cfg,
		sink:       sink,
		player:     player,
		logger:     logger.With(zap.String("session_id", cfg.TraceID)),
		state:      fsm.New(),
		done:       make(chan struct{}),
		playCtx:    playCtx,
		playCancel: playCancel,
	}
}

// State returns the connection state.
func (c *Client) State() fsm.State {
	return c.state.State()
}

// TraceID returns the id sent with the handshake.
func (c *Client) TraceID() string {
	return c.cfg.TraceID
}

// EndpointURL returns the configured endpoint.
func (c *Client) EndpointURL() string {
	return c.cfg.EndpointURL
}

// Done is closed once the connection has closed or failed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the transport error that ended the session, or nil after an
// orderly close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Connect dials the endpoint once and starts reading. It returns after the
// handshake; there is no retry. A failed dial leaves the client errored.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.state.OnConnecting(); err != nil {
		return fmt.Errorf("%w: %v", ErrAlreadyConnected, err)
	}

	c.logger.Info("interpreter connecting", zap.String("endpoint_url", c.cfg.EndpointURL))

	headers := http.Header{}
	headers.Set(traceHeader, c.cfg.TraceID)
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.cfg.EndpointURL, headers)
	if err != nil {
		terr := &TransportError{Op: "dial", Err: err}
		_ = c.state.OnError()
		c.setErr(terr)
		c.logger.Warn("interpreter connect failed", zap.String("endpoint_url", c.cfg.EndpointURL), zap.Error(err))
		c.sink.AppendLine("Connection error: " + err.Error())
		c.markDone()
		return terr
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	if err := c.state.OnOpen(); err != nil {
		_ = conn.Close()
		return err
	}

	c.logger.Info("interpreter connected", zap.String("endpoint_url", c.cfg.EndpointURL))
	go c.readLoop(conn)
	return nil
}

// SetLanguage sends a language selection. The failure is also written to
// the transcript so the user sees it.
func (c *Client) SetLanguage(ctx context.Context, cfg protocol.OutboundConfig) error {
	if state := c.state.State(); state != fsm.StateOpen {
		err := fmt.Errorf("%w (state %s)", ErrNotOpen, state)
		c.sink.AppendLine("Cannot set language: not connected (" + string(state) + ")")
		return err
	}

	payload, err := cfg.Encode()
	if err != nil {
		c.sink.AppendLine("Cannot set language: " + err.Error())
		return err
	}
	if err := c.writeText(ctx, payload); err != nil {
		c.logger.Warn("interpreter language send failed", zap.Error(err))
		c.sink.AppendLine("Cannot set language: " + err.Error())
		return err
	}

	c.logger.Info("interpreter language set",
		zap.String("language", cfg.Language()),
		zap.String("input_field", string(cfg.Field())),
		zap.String("input_language", cfg.Input()),
	)
	c.sink.AppendLine(cfg.StatusLine())
	return nil
}

func (c *Client) writeText(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	defer conn.SetWriteDeadline(time.Time{})
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// Close sends a close frame, waits briefly for the endpoint to answer, and
// stops any clip still playing.
func (c *Client) Close() error {
	c.closing.Store(true)
	defer c.playCancel()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(closeGracePeriod):
		_ = conn.Close()
		<-c.done
	}
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// WaitPlayback blocks until every started clip has finished.
func (c *Client) WaitPlayback() {
	c.playback.Wait()
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.finish(conn, err)
			return
		}
		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			c.dispatch(data)
		}
	}
}

// dispatch is the per-frame recovery boundary: nothing a single frame does
// can stop the read loop.
func (c *Client) dispatch(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("interpreter message handler panicked", zap.Any("panic", r))
		}
	}()
	if err := c.HandleMessage(data); err != nil {
		c.logger.Warn("interpreter inbound message dropped",
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
	}
}

func (c *Client) finish(conn *websocket.Conn, readErr error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()

	orderly := c.closing.Load() ||
		websocket.IsCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway)
	if orderly {
		_ = c.state.OnClosed()
		c.logger.Info("interpreter disconnected", zap.Error(readErr))
		c.sink.AppendLine("Disconnected from server.")
	} else {
		_ = c.state.OnError()
		c.setErr(&TransportError{Op: "read", Err: readErr})
		c.logger.Warn("interpreter connection lost", zap.Error(readErr))
		c.sink.AppendLine("Connection error: " + readErr.Error())
	}
	c.markDone()
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *Client) markDone() {
	c.closeOnce.Do(func() { close(c.done) })
}

type discardSink struct{}

func (discardSink) AppendLine(string) {}
