package audio

import (
	"errors"
	"fmt"
	"strings"
)

// Format names an inbound clip encoding.
const (
	FormatAuto = "auto"
	FormatWAV  = "wav"
	FormatPCM  = "pcm_s16le"
	FormatOpus = "opus"
)

var (
	// ErrUnsupportedFormat reports a clip whose encoding cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrInvalidClip reports a clip whose bytes do not match its encoding.
	ErrInvalidClip = errors.New("invalid audio clip")
)

// Clip is decoded interleaved PCM16 audio.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames.
func (c Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Params describe how to read a clip. SampleRate and Channels apply to the
// headerless formats.
type Params struct {
	Format     string
	SampleRate int
	Channels   int
}

// NormalizeFormat maps format aliases to their canonical names.
func NormalizeFormat(format string) string {
	switch strings.TrimSpace(strings.ToLower(format)) {
	case "", FormatAuto:
		return FormatAuto
	case "pcm", "pcm16", FormatPCM:
		return FormatPCM
	case FormatWAV, "wave":
		return FormatWAV
	case FormatOpus:
		return FormatOpus
	default:
		return strings.TrimSpace(strings.ToLower(format))
	}
}

// Sniff guesses the container of data; it only recognizes RIFF/WAVE.
func Sniff(data []byte) string {
	if isWAV(data) {
		return FormatWAV
	}
	return ""
}

// Decode turns an encoded clip into PCM.
func Decode(data []byte, params Params) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, fmt.Errorf("%w: empty payload", ErrInvalidClip)
	}
	sampleRate := params.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := params.Channels
	if channels <= 0 {
		channels = 1
	}

	format := NormalizeFormat(params.Format)
	if format == FormatAuto {
		format = Sniff(data)
		if format == "" {
			return Clip{}, fmt.Errorf("%w: unrecognized container", ErrUnsupportedFormat)
		}
	}

	switch format {
	case FormatWAV:
		return decodeWAV(data)
	case FormatPCM:
		if len(data)%(2*channels) != 0 {
			return Clip{}, fmt.Errorf("%w: %d bytes is not whole pcm16 frames", ErrInvalidClip, len(data))
		}
		return Clip{Samples: BytesToInt16(data), SampleRate: sampleRate, Channels: channels}, nil
	case FormatOpus:
		return decodeOpus(data, sampleRate, channels)
	default:
		return Clip{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
