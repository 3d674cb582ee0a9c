// Package transcript renders the append-only transcript the user reads.
package transcript

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Format selects how a line is rendered.
type Format string

const (
	FormatPlain Format = "plain"
	FormatHTML  Format = "html"
)

// ParseFormat accepts the configured format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatPlain, "":
		return FormatPlain, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown transcript format %q", raw)
	}
}

// Render formats one transcript line.
func (f Format) Render(line string) string {
	if f == FormatHTML {
		return "<p>" + html.EscapeString(line) + "</p>"
	}
	return line
}

// Sink is anything that accepts transcript lines.
type Sink interface {
	AppendLine(text string)
}

// Writer renders lines to an io.Writer, one per line.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	logger *zap.Logger
}

// NewWriter wraps w.
func NewWriter(w io.Writer, format Format, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{w: w, format: format, logger: logger}
}

// AppendLine writes the rendered line followed by a newline.
func (w *Writer) AppendLine(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.w, w.format.Render(text)+"\n"); err != nil {
		w.logger.Warn("transcript write failed", zap.Error(err))
	}
}

// Buffer keeps every line in memory.
type Buffer struct {
	mu     sync.RWMutex
	lines  []string
	format Format
}

// NewBuffer creates an empty buffer rendering with format.
func NewBuffer(format Format) *Buffer {
	return &Buffer{format: format}
}

// AppendLine stores the rendered line.
func (b *Buffer) AppendLine(text string) {
	b.mu.Lock()
	b.lines = append(b.lines, b.format.Render(text))
	b.mu.Unlock()
}

// Lines returns a copy of all lines.
func (b *Buffer) Lines() []string {
	return b.Since(0)
}

// Since returns a copy of the lines from offset on.
func (b *Buffer) Since(offset int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(b.lines) {
		return []string{}
	}
	out := make([]string, len(b.lines)-offset)
	copy(out, b.lines[offset:])
	return out
}

// Len returns the number of lines.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Multi fans out every line to each sink in order.
type Multi []Sink

// AppendLine forwards text to every sink.
func (m Multi) AppendLine(text string) {
	for _, sink := range m {
		if sink != nil {
			sink.AppendLine(text)
		}
	}
}
