//go:build !portaudio
// +build !portaudio

package device

import (
	"context"

	"siloso/internal/audio"
)

// Player stub when host audio is not available
type Player struct{}

func NewPlayer(cuePath string, ducker *Ducker) *Player { return &Player{} }

func (p *Player) Cue() {}

func (p *Player) Play(_ context.Context, _ audio.Clip) error {
	return ErrUnavailable
}
