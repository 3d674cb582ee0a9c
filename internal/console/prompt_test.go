package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/saker-ai/live-interpreter/internal/config"
	"github.com/saker-ai/live-interpreter/internal/protocol"
)

type recordingSetter struct {
	configs []protocol.OutboundConfig
	err     error
}

func (s *recordingSetter) SetLanguage(_ context.Context, cfg protocol.OutboundConfig) error {
	s.configs = append(s.configs, cfg)
	return s.err
}

func newPrompt(t *testing.T, field protocol.SourceField, out io.Writer) *Prompt {
	t.Helper()
	cat, err := config.LoadCatalogue("")
	if err != nil {
		t.Fatalf("LoadCatalogue error: %v", err)
	}
	return New(cat, field, out, nil)
}

func TestPromptParse(t *testing.T) {
	prompt := newPrompt(t, protocol.SourceFieldSource, io.Discard)
	tests := []struct {
		in   string
		want string
	}{
		{in: "2", want: `{"language":"fr"}`},
		{in: "fr", want: `{"language":"fr"}`},
		{in: "fr en", want: `{"language":"fr","source_language":"en"}`},
		{in: "  2   en ", want: `{"language":"fr","source_language":"en"}`},
		{in: "42", want: `{"language":"en"}`},
		{in: "zh-hans", want: `{"language":"zh-Hans"}`},
	}
	for _, tt := range tests {
		cfg, err := prompt.Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.in, err)
		}
		got, err := cfg.Encode()
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", tt.in, err)
		}
		if string(got) != tt.want {
			t.Fatalf("Parse(%q)=%s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPromptParseRecognitionField(t *testing.T) {
	prompt := newPrompt(t, protocol.SourceFieldRecognition, io.Discard)
	cfg, err := prompt.Parse("fr en-US")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	got, _ := cfg.Encode()
	if string(got) != `{"language":"fr","recognition_language":"en-US"}` {
		t.Fatalf("Encode=%s, want recognition_language variant", got)
	}
}

func TestPromptParseRejects(t *testing.T) {
	prompt := newPrompt(t, protocol.SourceFieldSource, io.Discard)
	if _, err := prompt.Parse("   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Parse(blank)=%v, want ErrEmptyInput", err)
	}
	for _, in := range []string{"fr en de", "not_a_tag!", "fr ??"} {
		if _, err := prompt.Parse(in); !errors.Is(err, protocol.ErrInvalidConfig) {
			t.Fatalf("Parse(%q)=%v, want ErrInvalidConfig", in, err)
		}
	}
}

func TestPromptPrintMenu(t *testing.T) {
	var out bytes.Buffer
	newPrompt(t, protocol.SourceFieldSource, &out).PrintMenu()
	text := out.String()
	for _, want := range []string{" 1. zh-Hans", " 2. fr (French)", "11. ur"} {
		if !strings.Contains(text, want) {
			t.Fatalf("menu missing %q:\n%s", want, text)
		}
	}
}

func TestPromptRun(t *testing.T) {
	var out bytes.Buffer
	prompt := newPrompt(t, protocol.SourceFieldSource, &out)
	setter := &recordingSetter{err: errors.New("not connected")}
	input := strings.NewReader("2 en\n\nbogus extra words here\nmenu\nja\nquit\nde\n")

	if err := prompt.Run(context.Background(), input, setter); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run=%v, want ErrQuit", err)
	}
	if len(setter.configs) != 2 {
		t.Fatalf("selections=%d, want 2", len(setter.configs))
	}
	if setter.configs[0].Language() != "fr" || setter.configs[0].Input() != "en" {
		t.Fatalf("first selection=%+v, want fr/en", setter.configs[0])
	}
	if setter.configs[1].Language() != "ja" {
		t.Fatalf("second selection=%q, want ja", setter.configs[1].Language())
	}
	if !strings.Contains(out.String(), "Invalid selection") {
		t.Fatalf("output missing invalid selection notice:\n%s", out.String())
	}
	if n := strings.Count(out.String(), "Select output language:"); n != 2 {
		t.Fatalf("menu printed %d times, want 2", n)
	}
}

func TestPromptRunStopsOnCancel(t *testing.T) {
	prompt := newPrompt(t, protocol.SourceFieldSource, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := prompt.Run(ctx, strings.NewReader(""), &recordingSetter{}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
}

func TestPromptRunEndsAtEOF(t *testing.T) {
	prompt := newPrompt(t, protocol.SourceFieldSource, io.Discard)
	setter := &recordingSetter{}
	if err := prompt.Run(context.Background(), strings.NewReader("fr\n"), setter); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(setter.configs) != 1 {
		t.Fatalf("selections=%d, want 1", len(setter.configs))
	}
}
