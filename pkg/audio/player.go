package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Convert remixes and resamples a clip to the given output format.
func Convert(clip Clip, sampleRate int, channels int) (Clip, error) {
	if channels > 0 && clip.Channels != channels {
		clip.Samples = Remix(clip.Samples, clip.Channels, channels)
		clip.Channels = channels
	}
	return Resample(clip, sampleRate)
}

// DeviceConfig configures playback on the default output device.
type DeviceConfig struct {
	Decode     Params
	SampleRate int
	Channels   int
}

// DevicePlayer plays clips on the default output device. Concurrent Play
// calls overlap; the device mixes them.
type DevicePlayer struct {
	ctx        *oto.Context
	decode     Params
	sampleRate int
	channels   int
	logger     *zap.Logger
}

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoFmt  [2]int
)

// NewDevicePlayer opens the output device. The device format is fixed by the
// first call in the process.
func NewDevicePlayer(cfg DeviceConfig, logger *zap.Logger) (*DevicePlayer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}

	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoErr == nil {
			<-ready
		}
		otoFmt = [2]int{cfg.SampleRate, cfg.Channels}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("open audio device: %w", otoErr)
	}

	logger.Info("audio device opened",
		zap.Int("sample_rate", otoFmt[0]),
		zap.Int("channels", otoFmt[1]),
		zap.String("format", NormalizeFormat(cfg.Decode.Format)),
	)
	return &DevicePlayer{
		ctx:        otoCtx,
		decode:     cfg.Decode,
		sampleRate: otoFmt[0],
		channels:   otoFmt[1],
		logger:     logger,
	}, nil
}

// Play decodes data and blocks until it has finished playing or ctx is done.
func (p *DevicePlayer) Play(ctx context.Context, data []byte) error {
	clip, err := Decode(data, p.decode)
	if err != nil {
		return err
	}
	clip, err = Convert(clip, p.sampleRate, p.channels)
	if err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(Int16ToBytes(clip.Samples)))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}

// ArchivePlayer writes every clip as a WAV file instead of playing it.
type ArchivePlayer struct {
	dir    string
	decode Params
	logger *zap.Logger
}

// NewArchivePlayer creates dir if needed.
func NewArchivePlayer(dir string, decode Params, logger *zap.Logger) (*ArchivePlayer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("audio archive dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio archive dir %s: %w", dir, err)
	}
	return &ArchivePlayer{dir: dir, decode: decode, logger: logger}, nil
}

// Play decodes data and stores it as <timestamp>_<uuid>.wav.
func (p *ArchivePlayer) Play(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clip, err := Decode(data, p.decode)
	if err != nil {
		return err
	}
	name := time.Now().Format("20060102-150405.000") + "_" + uuid.NewString() + ".wav"
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, EncodeWAV(clip), 0o644); err != nil {
		return err
	}
	p.logger.Info("audio clip archived",
		zap.String("path", path),
		zap.Int("sample_rate", clip.SampleRate),
		zap.Int("channels", clip.Channels),
		zap.Int("frames", clip.Frames()),
	)
	return nil
}

// NullPlayer decodes clips without playing them, so bad payloads are still reported.
type NullPlayer struct {
	Decode Params
}

// Play decodes data and discards it.
func (p NullPlayer) Play(_ context.Context, data []byte) error {
	_, err := Decode(data, p.Decode)
	return err
}
