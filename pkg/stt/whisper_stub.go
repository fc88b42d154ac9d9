//go:build !whisper
// +build !whisper

package stt

import (
	"context"
	"errors"

	"siloso/internal/audio"
)

var ErrWhisperUnavailable = errors.New("local whisper transcription not available: rebuild with -tags whisper")

// Transcriber stub when whisper.cpp is not linked.
type Transcriber struct{}

func NewTranscriber(modelPath string, opt Options) (*Transcriber, error) {
	return nil, ErrWhisperUnavailable
}

func (t *Transcriber) Close() error { return nil }

func (t *Transcriber) Transcribe(_ context.Context, _ audio.Clip) (string, error) {
	return "", ErrWhisperUnavailable
}
