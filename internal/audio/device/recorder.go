//go:build portaudio
// +build portaudio

package device

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"

	"siloso/internal/audio"
)

const (
	sampleRate       = 16000
	frameSize        = 320 // 20ms
	silenceThreshRMS = 0.015
	silenceDuration  = 800 * time.Millisecond
	maxLength        = 15 * time.Second
)

// Recorder captures a spoken question from the default input device.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record waits for speech and stops after a stretch of silence, the
// length limit or ctx cancellation.
func (r *Recorder) Record(ctx context.Context) (audio.Clip, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return audio.Clip{}, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return audio.Clip{}, err
	}
	defer stream.Stop()

	var (
		speaking bool
		silence  time.Duration
	)

	frameDur := time.Second * frameSize / sampleRate
	maxFrames := int(maxLength / frameDur)

	for i := 0; i < maxFrames; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := stream.Read(); err != nil {
			return audio.Clip{}, err
		}

		if frameRMS(buf) > silenceThreshRMS {
			speaking = true
			silence = 0
			out = append(out, buf...)
			continue
		}

		if speaking {
			silence += frameDur
			if silence >= silenceDuration {
				break
			}
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return audio.Clip{}, audio.ErrEmptyClip
	}
	return EncodeWAV(out, sampleRate)
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
