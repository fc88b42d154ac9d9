package audioconv_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"siloso/internal/audio"
	"siloso/pkg/audioconv"
)

func sineWAV(t *testing.T, rate, samples int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	data := make([]int, samples)
	for i := range data {
		data[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	f.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return b
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want audio.Format
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), audio.FormatWAV},
		{"ogg", []byte("OggS\x00\x02"), audio.FormatOGG},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, audio.FormatWebM},
		{"mp3 id3", []byte("ID3\x04\x00"), audio.FormatMP3},
		{"mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x00}, audio.FormatMP3},
		{"unknown", []byte("hello"), ""},
		{"short", []byte{0x01}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := audioconv.Sniff(tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTag(t *testing.T) {
	clip := audioconv.Tag(audio.Clip{Data: []byte("OggS....")})
	if clip.Format != audio.FormatOGG {
		t.Errorf("expected ogg tag, got %q", clip.Format)
	}

	clip = audioconv.Tag(audio.Clip{Data: []byte("OggS...."), Format: audio.FormatWebM})
	if clip.Format != audio.FormatWebM {
		t.Errorf("existing tag must be kept, got %q", clip.Format)
	}
}

func TestToPCM16k_WAV(t *testing.T) {
	clip := audio.Clip{Data: sineWAV(t, 16000, 16000), Format: audio.FormatWAV}

	pcm, err := audioconv.ToPCM16k(clip, audioconv.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pcm) != 16000 {
		t.Errorf("samples: got %d, want 16000", len(pcm))
	}
	for i, s := range pcm {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestToPCM16k_Resamples(t *testing.T) {
	clip := audio.Clip{Data: sineWAV(t, 8000, 8000)}

	pcm, err := audioconv.ToPCM16k(clip, audioconv.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pcm) != 16000 {
		t.Errorf("samples after resample: got %d, want 16000", len(pcm))
	}
}

func TestToPCM16k_MaxSamples(t *testing.T) {
	clip := audio.Clip{Data: sineWAV(t, 16000, 16000)}

	pcm, err := audioconv.ToPCM16k(clip, audioconv.Options{MaxSamples: 100})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pcm) != 100 {
		t.Errorf("samples: got %d, want 100", len(pcm))
	}
}

func TestDuration(t *testing.T) {
	clip := audio.Clip{Data: sineWAV(t, 16000, 8000), Format: audio.FormatWAV}

	d, err := audioconv.Duration(clip)
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if d != 500*time.Millisecond {
		t.Errorf("duration: got %v, want 500ms", d)
	}
}

func TestToPCM16k_Errors(t *testing.T) {
	if _, err := audioconv.ToPCM16k(audio.Clip{}, audioconv.Options{}); !errors.Is(err, audio.ErrEmptyClip) {
		t.Errorf("empty clip: expected ErrEmptyClip, got %v", err)
	}

	webm := audio.Clip{Data: []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}}
	if _, err := audioconv.ToPCM16k(webm, audioconv.Options{}); !errors.Is(err, audioconv.ErrUnsupported) {
		t.Errorf("webm: expected ErrUnsupported, got %v", err)
	}
}
