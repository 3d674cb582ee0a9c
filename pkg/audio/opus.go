package audio

import (
	"fmt"

	"github.com/saker-ai/live-interpreter/pkg/audio/opusx"
)

const opusMaxFrameDurationMs = 120

// decodeOpus decodes one opus packet with a fresh decoder per clip.
func decodeOpus(packet []byte, sampleRate int, channels int) (Clip, error) {
	dec, err := opusx.NewDecoder(sampleRate, channels)
	if err != nil {
		return Clip{}, fmt.Errorf("opus decoder (%s): %w", opusx.Backend(), err)
	}

	maxSamples := sampleRate * opusMaxFrameDurationMs / 1000
	pcm := make([]int16, maxSamples*channels)
	decoded, err := dec.Decode(packet, pcm)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: opus: %v", ErrInvalidClip, err)
	}
	if decoded <= 0 {
		return Clip{}, fmt.Errorf("%w: opus packet decoded to no samples", ErrInvalidClip)
	}
	return Clip{
		Samples:    pcm[:decoded*channels],
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}
