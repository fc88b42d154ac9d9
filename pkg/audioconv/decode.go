package audioconv

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

const fallbackRate = 44100

func decodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	channels, rate := 1, fallbackRate
	if f := buf.Format; f != nil {
		channels = max(f.NumChannels, 1)
		if f.SampleRate > 0 {
			rate = f.SampleRate
		}
	}

	full := float64(int64(1) << (depth - 1))
	return toMono(buf.Data, channels, full), rate, nil
}

// go-mp3 always produces 16-bit little endian stereo.
func decodeMP3(r io.Reader) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}

	frames := make([]int16, len(raw)/2)
	for i := range frames {
		frames[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = fallbackRate
	}
	return toMono(frames, 2, 32768), rate, nil
}

func decodeOggVorbis(r io.Reader) ([]float32, int, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, 0, errors.New("invalid ogg/vorbis stream")
	}
	return toMono(pcm, format.Channels, 1), format.SampleRate, nil
}

type sample interface {
	~int | ~int16 | ~float32
}

// toMono averages interleaved channels and scales the result into [-1, 1].
func toMono[T sample](in []T, channels int, full float64) []float32 {
	channels = max(channels, 1)
	out := make([]float32, len(in)/channels)
	for i := range out {
		var sum float64
		for _, v := range in[i*channels : (i+1)*channels] {
			sum += float64(v)
		}
		v := sum / float64(channels) / full
		out[i] = float32(math.Max(-1, math.Min(1, v)))
	}
	return out
}

// resample converts between rates by linear interpolation.
func resample(in []float32, from, to int) []float32 {
	if from == to || from <= 0 || len(in) == 0 {
		return in
	}

	step := float64(from) / float64(to)
	out := make([]float32, int(math.Ceil(float64(len(in))*float64(to)/float64(from))))
	last := len(in) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j] + (in[j+1]-in[j])*frac
	}
	return out
}
