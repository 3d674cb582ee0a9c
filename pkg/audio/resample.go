package audio

import (
	"fmt"
	"sync"

	resampler "github.com/godeps/go-audio-soxr"
)

type soxrKey struct {
	inRate  int
	outRate int
}

var soxrPools sync.Map

func getSoxrPool(key soxrKey) *sync.Pool {
	if pool, ok := soxrPools.Load(key); ok {
		return pool.(*sync.Pool)
	}
	pool := &sync.Pool{}
	actual, _ := soxrPools.LoadOrStore(key, pool)
	return actual.(*sync.Pool)
}

func acquireSoxr(inRate, outRate int) (*resampler.SimpleResamplerFloat32, error) {
	if v := getSoxrPool(soxrKey{inRate: inRate, outRate: outRate}).Get(); v != nil {
		if r, ok := v.(*resampler.SimpleResamplerFloat32); ok && r != nil {
			return r, nil
		}
	}
	return resampler.NewEngineFloat32(float64(inRate), float64(outRate), resampler.QualityHigh)
}

func releaseSoxr(inRate, outRate int, r *resampler.SimpleResamplerFloat32) {
	if r == nil {
		return
	}
	r.Reset()
	getSoxrPool(soxrKey{inRate: inRate, outRate: outRate}).Put(r)
}

// Resample converts a whole clip to outRate. Each channel runs through its own
// soxr engine; the engines are pooled per rate pair.
func Resample(clip Clip, outRate int) (Clip, error) {
	if outRate <= 0 || clip.SampleRate == outRate || len(clip.Samples) == 0 {
		return clip, nil
	}
	if clip.SampleRate <= 0 || clip.Channels <= 0 {
		return Clip{}, fmt.Errorf("resample: invalid clip %d Hz x %d", clip.SampleRate, clip.Channels)
	}

	planes := deinterleave(clip.Samples, clip.Channels)
	defer func() {
		for _, plane := range planes {
			ReleaseFloat32(plane)
		}
	}()

	outPlanes := make([][]float32, len(planes))
	for ch, plane := range planes {
		out, err := resamplePlane(plane, clip.SampleRate, outRate)
		if err != nil {
			return Clip{}, fmt.Errorf("resample channel %d: %w", ch, err)
		}
		outPlanes[ch] = out
	}

	return Clip{
		Samples:    interleave(outPlanes),
		SampleRate: outRate,
		Channels:   clip.Channels,
	}, nil
}

func resamplePlane(plane []float32, inRate, outRate int) ([]float32, error) {
	r, err := acquireSoxr(inRate, outRate)
	if err != nil {
		return nil, err
	}
	defer releaseSoxr(inRate, outRate, r)

	out, err := r.Process(plane)
	if err != nil {
		return nil, err
	}
	// Process may hand back an internal buffer.
	result := append([]float32(nil), out...)
	tail, err := r.Flush()
	if err != nil {
		return nil, err
	}
	return append(result, tail...), nil
}
