//go:build !cgo

package opusx

import "github.com/godeps/opus"

// Backend names the opus implementation compiled in.
func Backend() string {
	return "pure-godeps/opus"
}

// Decoder decodes single opus packets to PCM16.
type Decoder struct {
	dec *opus.Decoder
}

// NewDecoder creates a decoder for the given output format.
func NewDecoder(sampleRate, channels int) (*Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &Decoder{dec: dec}, nil
}

// Decode writes interleaved samples into pcm and returns samples per channel.
func (d *Decoder) Decode(data []byte, pcm []int16) (int, error) {
	return d.dec.Decode(data, pcm)
}
