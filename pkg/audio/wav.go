package audio

import (
	"encoding/binary"
	"fmt"
)

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// decodeWAV walks the RIFF chunks and returns the 16-bit PCM data chunk.
func decodeWAV(data []byte) (Clip, error) {
	if !isWAV(data) {
		return Clip{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidClip)
	}

	sampleRate := 0
	channels := 0
	bitsPerSample := 0
	formatTag := 0

	offset := 12
	dataOffset := -1
	dataSize := 0
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if chunkSize < 0 || offset+chunkSize > len(data) {
			chunkSize = len(data) - offset
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Clip{}, fmt.Errorf("%w: short fmt chunk", ErrInvalidClip)
			}
			formatTag = int(binary.LittleEndian.Uint16(data[offset : offset+2]))
			channels = int(binary.LittleEndian.Uint16(data[offset+2 : offset+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[offset+14 : offset+16]))
		case "data":
			dataOffset = offset
			dataSize = chunkSize
		}

		offset += chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if sampleRate <= 0 || channels <= 0 {
		return Clip{}, fmt.Errorf("%w: fmt chunk not found", ErrInvalidClip)
	}
	// 0xFFFE is WAVE_FORMAT_EXTENSIBLE, accepted when it carries 16-bit samples.
	if formatTag != 1 && formatTag != 0xFFFE {
		return Clip{}, fmt.Errorf("%w: wav format tag %#x", ErrUnsupportedFormat, formatTag)
	}
	if bitsPerSample != 16 {
		return Clip{}, fmt.Errorf("%w: wav %d bits per sample", ErrUnsupportedFormat, bitsPerSample)
	}
	if dataOffset < 0 || dataSize <= 0 {
		return Clip{}, fmt.Errorf("%w: wav data chunk not found", ErrInvalidClip)
	}

	pcm := data[dataOffset : dataOffset+dataSize]
	usable := len(pcm) - len(pcm)%(2*channels)
	return Clip{
		Samples:    BytesToInt16(pcm[:usable]),
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// EncodeWAV wraps a clip in a canonical 44-byte RIFF header.
func EncodeWAV(clip Clip) []byte {
	dataSize := len(clip.Samples) * 2
	blockAlign := clip.Channels * 2
	out := make([]byte, 44, 44+dataSize)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1)
	binary.LittleEndian.PutUint16(out[22:24], uint16(clip.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(clip.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(clip.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))
	return append(out, Int16ToBytes(clip.Samples)...)
}
