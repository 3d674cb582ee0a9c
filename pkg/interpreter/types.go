package interpreter

import (
	"context"
	"errors"
	"time"

	"github.com/saker-ai/live-interpreter/internal/protocol"
)

// OutputSink receives transcript lines.
type OutputSink interface {
	AppendLine(text string)
}

// AudioPlayer plays one encoded clip. Play may block until playback ends;
// the client calls it from its own goroutine.
type AudioPlayer interface {
	Play(ctx context.Context, clip []byte) error
}

// Config holds connection settings.
type Config struct {
	EndpointURL      string
	HandshakeTimeout time.Duration
	// TraceID is sent as X-ClientTraceId. A random id is used when empty.
	TraceID string
}

var (
	// ErrNotOpen is returned when sending while the connection is not open.
	ErrNotOpen = errors.New("connection is not open")
	// ErrAlreadyConnected is returned by a second Connect call.
	ErrAlreadyConnected = errors.New("connection already attempted")
	// ErrAudioDecode wraps base64, container and playback failures of a clip.
	ErrAudioDecode = errors.New("audio decode failed")
	// ErrMalformedMessage reports an inbound frame that could not be parsed.
	ErrMalformedMessage = protocol.ErrMalformedMessage
)

// TransportError reports a failure of the underlying connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "interpreter " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
