//go:build portaudio
// +build portaudio

package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"siloso/internal/audio"
)

const (
	duckFactor = 0.3
	duckFade   = 300 * time.Millisecond
)

// Player speaks answers through the default output device.
type Player struct {
	cuePath string
	ducker  *Ducker
}

func NewPlayer(cuePath string, ducker *Ducker) *Player {
	return &Player{cuePath: cuePath, ducker: ducker}
}

// Cue plays the short sound that announces recording. A missing cue file
// is logged and skipped.
func (p *Player) Cue() {
	if p.cuePath == "" {
		return
	}

	f, err := os.Open(p.cuePath)
	if err != nil {
		log.Warn("Failed to open cue", "path", p.cuePath, "err", err)
		return
	}

	if err := play(context.Background(), f, audio.FormatMP3); err != nil {
		log.Warn("Failed to play cue", "err", err)
	}
}

func (p *Player) Play(ctx context.Context, clip audio.Clip) error {
	if clip.Empty() {
		return audio.ErrEmptyClip
	}

	if p.ducker != nil {
		if err := p.ducker.DuckOthers(ctx, duckFactor, duckFade); err != nil {
			log.Warn("Failed to duck other streams", "err", err)
		}
		defer func() {
			if err := p.ducker.UnduckOthers(context.Background(), duckFade); err != nil {
				log.Warn("Failed to restore other streams", "err", err)
			}
		}()
	}

	return play(ctx, io.NopCloser(bytes.NewReader(clip.Data)), clip.Format)
}

func play(ctx context.Context, rc io.ReadCloser, format audio.Format) error {
	var (
		streamer beep.StreamSeekCloser
		bf       beep.Format
		err      error
	)
	switch format {
	case audio.FormatWAV:
		streamer, bf, err = wav.Decode(rc)
	case audio.FormatMP3, "":
		streamer, bf, err = mp3.Decode(rc)
	default:
		rc.Close()
		return fmt.Errorf("cannot play %s audio", format)
	}
	if err != nil {
		rc.Close()
		return fmt.Errorf("decode: %w", err)
	}
	defer streamer.Close()

	if err := speaker.Init(bf.SampleRate, bf.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
