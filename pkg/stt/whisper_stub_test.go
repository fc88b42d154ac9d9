//go:build !whisper
// +build !whisper

package stt_test

import (
	"context"
	"errors"
	"testing"

	"siloso/internal/audio"
	"siloso/pkg/stt"
)

func TestTranscriber_Unavailable(t *testing.T) {
	if _, err := stt.NewTranscriber("model.bin", stt.Options{}); !errors.Is(err, stt.ErrWhisperUnavailable) {
		t.Fatalf("expected ErrWhisperUnavailable, got %v", err)
	}

	var tr stt.Transcriber
	if _, err := tr.Transcribe(context.Background(), audio.Clip{Data: []byte("x")}); !errors.Is(err, stt.ErrWhisperUnavailable) {
		t.Errorf("expected ErrWhisperUnavailable, got %v", err)
	}
}
