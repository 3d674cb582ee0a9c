// Package protocol defines the JSON text frames exchanged with the
// interpreter endpoint.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrMalformedMessage reports an inbound frame that is not a JSON object
	// of the expected shape.
	ErrMalformedMessage = errors.New("malformed inbound message")
	// ErrInvalidConfig reports an outbound language selection that failed validation.
	ErrInvalidConfig = errors.New("invalid language config")
)

// SourceField names the outbound key carrying the input language.
type SourceField string

const (
	// SourceFieldNone sends only the output language.
	SourceFieldNone SourceField = ""
	// SourceFieldSource sends the input language as source_language.
	SourceFieldSource SourceField = "source_language"
	// SourceFieldRecognition sends the input language as recognition_language.
	SourceFieldRecognition SourceField = "recognition_language"
)

// ParseSourceField accepts the configured field name.
func ParseSourceField(raw string) (SourceField, error) {
	switch SourceField(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceFieldNone:
		return SourceFieldNone, nil
	case SourceFieldSource:
		return SourceFieldSource, nil
	case SourceFieldRecognition:
		return SourceFieldRecognition, nil
	default:
		return SourceFieldNone, fmt.Errorf("unknown source field %q", raw)
	}
}

// OutboundConfig selects the output language and, optionally, the language
// the speaker uses. The zero value is invalid; build one with NewOutboundConfig.
type OutboundConfig struct {
	language string
	input    string
	field    SourceField
}

// NewOutboundConfig starts a config carrying only the output language.
func NewOutboundConfig(lang string) OutboundConfig {
	return OutboundConfig{language: strings.TrimSpace(lang)}
}

// WithSource returns a copy that also sends source_language.
func (c OutboundConfig) WithSource(lang string) OutboundConfig {
	return c.WithInput(SourceFieldSource, lang)
}

// WithRecognition returns a copy that also sends recognition_language.
func (c OutboundConfig) WithRecognition(lang string) OutboundConfig {
	return c.WithInput(SourceFieldRecognition, lang)
}

// WithInput returns a copy that sends lang under field. An empty lang or
// SourceFieldNone drops the input language.
func (c OutboundConfig) WithInput(field SourceField, lang string) OutboundConfig {
	lang = strings.TrimSpace(lang)
	if field == SourceFieldNone || lang == "" {
		c.field = SourceFieldNone
		c.input = ""
		return c
	}
	c.field = field
	c.input = lang
	return c
}

// Language returns the output language.
func (c OutboundConfig) Language() string { return c.language }

// Input returns the input language, empty when none is sent.
func (c OutboundConfig) Input() string { return c.input }

// Field returns the key the input language is sent under.
func (c OutboundConfig) Field() SourceField { return c.field }

// Validate checks both languages are well-formed BCP 47 tags.
func (c OutboundConfig) Validate() error {
	if c.language == "" {
		return fmt.Errorf("%w: output language is empty", ErrInvalidConfig)
	}
	if _, err := language.Parse(c.language); err != nil {
		return fmt.Errorf("%w: output language %q: %v", ErrInvalidConfig, c.language, err)
	}
	switch c.field {
	case SourceFieldNone:
		return nil
	case SourceFieldSource, SourceFieldRecognition:
	default:
		return fmt.Errorf("%w: unknown source field %q", ErrInvalidConfig, c.field)
	}
	if _, err := language.Parse(c.input); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, c.field, c.input, err)
	}
	return nil
}

type outboundWire struct {
	Language            string `json:"language"`
	SourceLanguage      string `json:"source_language,omitempty"`
	RecognitionLanguage string `json:"recognition_language,omitempty"`
}

// Encode validates the config and renders the text frame payload.
func (c OutboundConfig) Encode() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	wire := outboundWire{Language: c.language}
	switch c.field {
	case SourceFieldSource:
		wire.SourceLanguage = c.input
	case SourceFieldRecognition:
		wire.RecognitionLanguage = c.input
	}
	return json.Marshal(wire)
}

// StatusLine is the transcript line confirming the selection.
func (c OutboundConfig) StatusLine() string {
	switch c.field {
	case SourceFieldSource:
		return fmt.Sprintf("Output language set to %s, source language set to %s", c.language, c.input)
	case SourceFieldRecognition:
		return fmt.Sprintf("Output language set to %s, recognition language set to %s", c.language, c.input)
	default:
		return fmt.Sprintf("Language set to %s.", c.language)
	}
}

// InboundMessage is one frame from the endpoint. Every field is optional and
// any subset may be present.
type InboundMessage struct {
	Translation *string `json:"translation,omitempty"`
	Audio       *string `json:"audio,omitempty"`
	Message     *string `json:"message,omitempty"`
}

// HasTranslation reports whether a non-empty translation is present.
func (m InboundMessage) HasTranslation() bool { return m.Translation != nil && *m.Translation != "" }

// HasAudio reports whether a non-empty audio payload is present.
func (m InboundMessage) HasAudio() bool { return m.Audio != nil && *m.Audio != "" }

// HasMessage reports whether a non-empty status message is present.
func (m InboundMessage) HasMessage() bool { return m.Message != nil && *m.Message != "" }

// ParseInbound decodes a text frame. Unknown keys are ignored; anything that is
// not a JSON object with string-typed known fields is ErrMalformedMessage.
func ParseInbound(raw []byte) (InboundMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return InboundMessage{}, fmt.Errorf("%w: not a JSON object", ErrMalformedMessage)
	}
	var msg InboundMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return InboundMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return msg, nil
}
