package device

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"siloso/internal/audio"
)

// EncodeWAV packs mono float32 samples into a 16-bit PCM WAV clip.
func EncodeWAV(pcm []float32, sampleRate int) (audio.Clip, error) {
	if len(pcm) == 0 {
		return audio.Clip{}, audio.ErrEmptyClip
	}

	// the encoder needs to seek back to patch the header
	f, err := os.CreateTemp("", "guide-*.wav")
	if err != nil {
		return audio.Clip{}, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	data := make([]int, len(pcm))
	for i, s := range pcm {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return audio.Clip{}, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return audio.Clip{}, fmt.Errorf("finish wav: %w", err)
	}

	b, err := os.ReadFile(f.Name())
	if err != nil {
		return audio.Clip{}, fmt.Errorf("read wav: %w", err)
	}
	return audio.Clip{Data: b, Format: audio.FormatWAV}, nil
}
