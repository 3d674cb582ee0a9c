// Package console reads language selections typed at the terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/saker-ai/live-interpreter/internal/config"
	"github.com/saker-ai/live-interpreter/internal/protocol"
)

var (
	// ErrEmptyInput reports a blank selection line.
	ErrEmptyInput = errors.New("empty selection")
	// ErrQuit is returned by Run when the user asks to leave.
	ErrQuit = errors.New("quit requested")
)

// LanguageSetter receives parsed selections.
type LanguageSetter interface {
	SetLanguage(ctx context.Context, cfg protocol.OutboundConfig) error
}

// Prompt turns lines such as "2", "fr", "fr en" or "2 en" into language
// selections.
type Prompt struct {
	catalogue config.Catalogue
	field     protocol.SourceField
	out       io.Writer
	logger    *zap.Logger
}

// New creates a prompt. A source language typed after the output language is
// sent under field, or as source_language when field is none.
func New(catalogue config.Catalogue, field protocol.SourceField, out io.Writer, logger *zap.Logger) *Prompt {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	if field == protocol.SourceFieldNone {
		field = protocol.SourceFieldSource
	}
	return &Prompt{catalogue: catalogue, field: field, out: out, logger: logger}
}

// PrintMenu writes the numbered language list.
func (p *Prompt) PrintMenu() {
	fmt.Fprintln(p.out, "Select output language:")
	for i, lang := range p.catalogue.Languages {
		fmt.Fprintf(p.out, "%2d. %s (%s)\n", i+1, lang.Code, lang.Name)
	}
	fmt.Fprintf(p.out, "Enter a number or code, optionally followed by the source language (e.g. \"2 en\"). Unknown numbers select %s. Type \"menu\" to list again, \"quit\" to exit.\n", p.catalogue.Fallback)
}

// Parse builds a selection from one input line.
func (p *Prompt) Parse(line string) (protocol.OutboundConfig, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return protocol.OutboundConfig{}, ErrEmptyInput
	case 1, 2:
	default:
		return protocol.OutboundConfig{}, fmt.Errorf("%w: expected \"<language> [source]\", got %q", protocol.ErrInvalidConfig, line)
	}

	cfg := protocol.NewOutboundConfig(p.catalogue.Resolve(fields[0]))
	if len(fields) == 2 {
		cfg = cfg.WithInput(p.field, p.catalogue.Resolve(fields[1]))
	}
	if err := cfg.Validate(); err != nil {
		return protocol.OutboundConfig{}, err
	}
	return cfg, nil
}

// Run reads selections from in until it is exhausted or ctx is done, and
// returns ErrQuit when the user types quit. Bad lines and send failures are
// reported and the loop continues.
func (p *Prompt) Run(ctx context.Context, in io.Reader, setter LanguageSetter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	p.PrintMenu()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if !p.handle(ctx, line, setter) {
				return ErrQuit
			}
		}
	}
}

// handle processes one line and reports whether to keep reading.
func (p *Prompt) handle(ctx context.Context, line string, setter LanguageSetter) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return true
	case "quit", "exit":
		return false
	case "menu", "help", "?":
		p.PrintMenu()
		return true
	}

	cfg, err := p.Parse(line)
	if err != nil {
		fmt.Fprintf(p.out, "Invalid selection: %v\n", err)
		return true
	}
	if err := setter.SetLanguage(ctx, cfg); err != nil {
		p.logger.Debug("console language selection failed", zap.String("input", line), zap.Error(err))
	}
	return true
}
