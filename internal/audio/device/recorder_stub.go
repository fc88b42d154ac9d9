//go:build !portaudio
// +build !portaudio

package device

import (
	"context"
	"errors"

	"siloso/internal/audio"
)

var ErrUnavailable = errors.New("host audio not available: rebuild with -tags portaudio")

// Recorder stub when portaudio is not available
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error { return ErrUnavailable }

func (r *Recorder) Close() {}

func (r *Recorder) Record(_ context.Context) (audio.Clip, error) {
	return audio.Clip{}, ErrUnavailable
}
