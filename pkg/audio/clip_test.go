package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testClip(frames, sampleRate, channels int) Clip {
	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = int16((i * 97) % 2000)
	}
	return Clip{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

func TestDecodeWAVRoundTrip(t *testing.T) {
	clip := testClip(160, 16000, 2)
	got, err := Decode(EncodeWAV(clip), Params{Format: FormatAuto})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got.SampleRate != 16000 || got.Channels != 2 {
		t.Fatalf("Decode format=%d Hz x %d, want 16000 x 2", got.SampleRate, got.Channels)
	}
	if len(got.Samples) != len(clip.Samples) {
		t.Fatalf("len(Samples)=%d, want %d", len(got.Samples), len(clip.Samples))
	}
	for i := range clip.Samples {
		if got.Samples[i] != clip.Samples[i] {
			t.Fatalf("Samples[%d]=%d, want %d", i, got.Samples[i], clip.Samples[i])
		}
	}
	if got.Frames() != 160 {
		t.Fatalf("Frames=%d, want 160", got.Frames())
	}
}

func TestDecodeWAVRejectsNon16Bit(t *testing.T) {
	data := EncodeWAV(testClip(10, 8000, 1))
	data[34] = 8
	if _, err := Decode(data, Params{Format: FormatWAV}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Decode(8-bit)=%v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeWAVMissingData(t *testing.T) {
	data := EncodeWAV(testClip(10, 8000, 1))[:36]
	if _, err := Decode(data, Params{Format: FormatWAV}); !errors.Is(err, ErrInvalidClip) {
		t.Fatalf("Decode(no data chunk)=%v, want ErrInvalidClip", err)
	}
}

func TestDecodePCM(t *testing.T) {
	got, err := Decode([]byte{0x01, 0x00, 0xff, 0xff}, Params{Format: "pcm16", SampleRate: 24000, Channels: 1})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(got.Samples) != 2 || got.Samples[0] != 1 || got.Samples[1] != -1 {
		t.Fatalf("Samples=%v, want [1 -1]", got.Samples)
	}
	if got.SampleRate != 24000 {
		t.Fatalf("SampleRate=%d, want 24000", got.SampleRate)
	}

	if _, err := Decode([]byte{0x01, 0x00, 0x02}, Params{Format: FormatPCM, Channels: 1}); !errors.Is(err, ErrInvalidClip) {
		t.Fatalf("Decode(odd bytes)=%v, want ErrInvalidClip", err)
	}
}

func TestDecodeAutoUnknownContainer(t *testing.T) {
	if _, err := Decode([]byte("ID3\x03not a wav"), Params{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Decode(mp3)=%v, want ErrUnsupportedFormat", err)
	}
	if _, err := Decode(nil, Params{}); !errors.Is(err, ErrInvalidClip) {
		t.Fatalf("Decode(nil)=%v, want ErrInvalidClip", err)
	}
	if _, err := Decode([]byte{1, 2}, Params{Format: "flac"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Decode(flac)=%v, want ErrUnsupportedFormat", err)
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: FormatAuto},
		{in: " WAV ", want: FormatWAV},
		{in: "pcm", want: FormatPCM},
		{in: "pcm_s16le", want: FormatPCM},
		{in: "Opus", want: FormatOpus},
	}
	for _, tt := range tests {
		if got := NormalizeFormat(tt.in); got != tt.want {
			t.Fatalf("NormalizeFormat(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemix(t *testing.T) {
	stereo := Remix([]int16{10, -20}, 1, 2)
	if len(stereo) != 4 || stereo[0] != 10 || stereo[1] != 10 || stereo[2] != -20 || stereo[3] != -20 {
		t.Fatalf("Remix(mono->stereo)=%v, want [10 10 -20 -20]", stereo)
	}
	mono := Remix([]int16{10, 20, -4, 4}, 2, 1)
	if len(mono) != 2 || mono[0] != 15 || mono[1] != 0 {
		t.Fatalf("Remix(stereo->mono)=%v, want [15 0]", mono)
	}
	same := []int16{1, 2}
	if got := Remix(same, 2, 2); &got[0] != &same[0] {
		t.Fatal("Remix(same channels) copied samples")
	}
}

func TestConvertSameRateOnlyRemixes(t *testing.T) {
	clip := testClip(100, 48000, 1)
	got, err := Convert(clip, 48000, 2)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if got.Channels != 2 || got.Frames() != 100 || got.SampleRate != 48000 {
		t.Fatalf("Convert=%d Hz x %d, %d frames; want 48000 x 2, 100 frames", got.SampleRate, got.Channels, got.Frames())
	}
}

func TestResampleLength(t *testing.T) {
	clip := testClip(1600, 16000, 1)
	got, err := Resample(clip, 48000)
	if err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	if got.SampleRate != 48000 || got.Channels != 1 {
		t.Fatalf("Resample format=%d x %d, want 48000 x 1", got.SampleRate, got.Channels)
	}
	want := 4800
	if got.Frames() < want*9/10 || got.Frames() > want*11/10 {
		t.Fatalf("Resample frames=%d, want about %d", got.Frames(), want)
	}
}

func TestArchivePlayerWritesWAV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clips")
	player, err := NewArchivePlayer(dir, Params{Format: FormatAuto}, nil)
	if err != nil {
		t.Fatalf("NewArchivePlayer error: %v", err)
	}
	clip := testClip(80, 16000, 1)
	if err := player.Play(context.Background(), EncodeWAV(clip)); err != nil {
		t.Fatalf("Play error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".wav" {
		t.Fatalf("archive entries=%v, want one .wav file", entries)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	stored, err := Decode(data, Params{})
	if err != nil {
		t.Fatalf("Decode(stored) error: %v", err)
	}
	if stored.Frames() != 80 {
		t.Fatalf("stored frames=%d, want 80", stored.Frames())
	}

	if err := player.Play(context.Background(), []byte("garbage")); err == nil {
		t.Fatal("Play(garbage) error=nil, want non-nil")
	}
}

func TestNullPlayerReportsDecodeErrors(t *testing.T) {
	p := NullPlayer{Decode: Params{Format: FormatAuto}}
	if err := p.Play(context.Background(), EncodeWAV(testClip(10, 8000, 1))); err != nil {
		t.Fatalf("Play(valid) error: %v", err)
	}
	if err := p.Play(context.Background(), []byte("nope")); err == nil {
		t.Fatal("Play(invalid) error=nil, want non-nil")
	}
}
