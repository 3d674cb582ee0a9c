package transcript

import (
	"bytes"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{in: "plain", want: FormatPlain},
		{in: "", want: FormatPlain},
		{in: " HTML ", want: FormatHTML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseFormat(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseFormat("markdown"); err == nil {
		t.Fatal("ParseFormat(markdown) error=nil, want non-nil")
	}
}

func TestWriterPlain(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, FormatPlain, nil)
	w.AppendLine("Translation: bonjour")
	w.AppendLine("Message: ready")

	want := "Translation: bonjour\nMessage: ready\n"
	if out.String() != want {
		t.Fatalf("output=%q, want %q", out.String(), want)
	}
}

func TestWriterHTMLEscapes(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, FormatHTML, nil)
	w.AppendLine("Message: <b>ready</b> & set")

	want := "<p>Message: &lt;b&gt;ready&lt;/b&gt; &amp; set</p>\n"
	if out.String() != want {
		t.Fatalf("output=%q, want %q", out.String(), want)
	}
}

func TestBufferSince(t *testing.T) {
	b := NewBuffer(FormatPlain)
	b.AppendLine("one")
	b.AppendLine("two")
	b.AppendLine("three")

	if b.Len() != 3 {
		t.Fatalf("Len=%d, want 3", b.Len())
	}
	got := b.Since(1)
	if len(got) != 2 || got[0] != "two" || got[1] != "three" {
		t.Fatalf("Since(1)=%v, want [two three]", got)
	}
	if got := b.Since(10); len(got) != 0 {
		t.Fatalf("Since(10)=%v, want empty", got)
	}
	lines := b.Lines()
	lines[0] = "mutated"
	if b.Lines()[0] != "one" {
		t.Fatal("Lines returned shared backing array")
	}
}

func TestMultiFansOut(t *testing.T) {
	a := NewBuffer(FormatPlain)
	b := NewBuffer(FormatHTML)
	Multi{a, nil, b}.AppendLine("x")

	if got := a.Lines(); len(got) != 1 || got[0] != "x" {
		t.Fatalf("a=%v, want [x]", got)
	}
	if got := b.Lines(); len(got) != 1 || got[0] != "<p>x</p>" {
		t.Fatalf("b=%v, want [<p>x</p>]", got)
	}
}
