package stt

import (
	"bytes"
	"context"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"siloso/internal/audio"
)

const DefaultRemoteModel = "gpt-4o-mini-transcribe"

// Remote transcribes clips through the OpenAI transcription endpoint.
type Remote struct {
	client openai.Client
	model  string
}

func NewRemote(client openai.Client, model string) *Remote {
	if model == "" {
		model = DefaultRemoteModel
	}
	return &Remote{client: client, model: model}
}

func (r *Remote) Transcribe(ctx context.Context, clip audio.Clip) (string, error) {
	if clip.Empty() {
		return "", audio.ErrEmptyClip
	}

	file := openai.File(bytes.NewReader(clip.Data), clip.Filename("question"), clip.Format.MIME())

	resp, err := r.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(r.model),
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	log.Debug("Transcribed remotely", "model", r.model, "bytes", len(clip.Data))

	return strings.TrimSpace(resp.Text), nil
}
