package audioconv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"siloso/internal/audio"
)

const TargetRate = 16000

type Options struct {
	MaxSamples int
}

var ErrUnsupported = errors.New("unsupported audio format")

// Sniff guesses the clip format from magic bytes. It returns "" when the
// container is not recognised.
func Sniff(data []byte) audio.Format {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return audio.FormatWAV
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return audio.FormatOGG
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return audio.FormatWebM
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return audio.FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return audio.FormatMP3
	}
	return ""
}

// Tag fills in a missing format tag from the clip content.
func Tag(clip audio.Clip) audio.Clip {
	if clip.Format == "" {
		clip.Format = Sniff(clip.Data)
	}
	return clip
}

// ToPCM16k decodes a clip into mono float32 samples at 16 kHz.
func ToPCM16k(clip audio.Clip, opt Options) ([]float32, error) {
	if clip.Empty() {
		return nil, audio.ErrEmptyClip
	}

	pcm, rate, err := decode(clip)
	if err != nil {
		return nil, err
	}

	if rate != TargetRate {
		pcm = resample(pcm, rate, TargetRate)
	}
	if opt.MaxSamples > 0 && len(pcm) > opt.MaxSamples {
		pcm = pcm[:opt.MaxSamples]
	}
	return pcm, nil
}

// Duration reports the playing time of a clip.
func Duration(clip audio.Clip) (time.Duration, error) {
	if clip.Empty() {
		return 0, audio.ErrEmptyClip
	}

	pcm, rate, err := decode(clip)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, errors.New("unknown sample rate")
	}
	return time.Duration(len(pcm)) * time.Second / time.Duration(rate), nil
}

// decode returns mono samples and their sample rate.
func decode(clip audio.Clip) ([]float32, int, error) {
	format := clip.Format
	if sniffed := Sniff(clip.Data); sniffed != "" {
		format = sniffed
	}

	r := bytes.NewReader(clip.Data)

	switch format {
	case audio.FormatWAV:
		return decodeWAV(r)
	case audio.FormatMP3:
		return decodeMP3(r)
	case audio.FormatOGG:
		pcm, rate, err := decodeOggVorbis(r)
		if err == nil {
			return pcm, rate, nil
		}
		if _, e2 := r.Seek(0, io.SeekStart); e2 != nil {
			return nil, 0, e2
		}
		pcm, rate, e3 := decodeOggOpus(r)
		if e3 != nil {
			return nil, 0, fmt.Errorf("cannot decode ogg as vorbis (%v) or opus: %w", err, e3)
		}
		return pcm, rate, nil
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupported, format)
	}
}
