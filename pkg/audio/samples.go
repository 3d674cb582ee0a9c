package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

var float32Pool sync.Pool

// AcquireFloat32 returns a float32 slice with length size.
func AcquireFloat32(size int) []float32 {
	if size <= 0 {
		return nil
	}
	if v := float32Pool.Get(); v != nil {
		buf := v.([]float32)
		if cap(buf) >= size {
			return buf[:size]
		}
	}
	return make([]float32, size)
}

// ReleaseFloat32 puts a float32 slice back to the pool.
func ReleaseFloat32(buf []float32) {
	if buf == nil {
		return
	}
	float32Pool.Put(buf[:0])
}

func float32ToInt16(sample float32) int16 {
	if sample > 1.0 {
		return math.MaxInt16
	}
	if sample < -1.0 {
		return math.MinInt16
	}
	return int16(sample * math.MaxInt16)
}

// BytesToInt16 reads little-endian PCM16. A trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// Int16ToBytes writes samples as little-endian PCM16.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

// deinterleave splits interleaved samples into one float32 slice per channel.
// The returned slices come from the float32 pool.
func deinterleave(samples []int16, channels int) [][]float32 {
	frames := len(samples) / channels
	planes := make([][]float32, channels)
	for ch := range planes {
		plane := AcquireFloat32(frames)
		for i := 0; i < frames; i++ {
			plane[i] = float32(samples[i*channels+ch]) / float32(math.MaxInt16)
		}
		planes[ch] = plane
	}
	return planes
}

// interleave joins per-channel planes, truncating to the shortest one.
func interleave(planes [][]float32) []int16 {
	if len(planes) == 0 {
		return nil
	}
	frames := len(planes[0])
	for _, plane := range planes[1:] {
		frames = min(frames, len(plane))
	}
	channels := len(planes)
	out := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		for ch, plane := range planes {
			out[i*channels+ch] = float32ToInt16(plane[i])
		}
	}
	return out
}

// Remix converts interleaved samples between channel counts. Downmixing to
// mono averages; any other reduction keeps the leading channels.
func Remix(samples []int16, from int, to int) []int16 {
	if from <= 0 || to <= 0 || from == to {
		return samples
	}
	frames := len(samples) / from
	out := make([]int16, frames*to)
	for i := 0; i < frames; i++ {
		frame := samples[i*from : (i+1)*from]
		switch {
		case to == 1:
			sum := 0
			for _, s := range frame {
				sum += int(s)
			}
			out[i] = int16(sum / from)
		case from == 1:
			for ch := 0; ch < to; ch++ {
				out[i*to+ch] = frame[0]
			}
		default:
			for ch := 0; ch < to; ch++ {
				out[i*to+ch] = frame[min(ch, from-1)]
			}
		}
	}
	return out
}
