package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"siloso/internal/audio"
	"siloso/internal/voice"
)

const DefaultModel = "gpt-4o-mini-tts"

var (
	ErrEmptyInput = errors.New("nothing to synthesize")
	ErrEmptyAudio = errors.New("empty audio in response")
)

// Synthesizer renders answer text as mp3 speech.
type Synthesizer struct {
	client openai.Client
	model  string
}

func NewSynthesizer(client openai.Client, model string) *Synthesizer {
	if model == "" {
		model = DefaultModel
	}
	return &Synthesizer{client: client, model: model}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string, v voice.Voice) (audio.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return audio.Clip{}, ErrEmptyInput
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(v),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return audio.Clip{}, fmt.Errorf("speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("read speech body: %w", err)
	}
	if len(data) == 0 {
		return audio.Clip{}, ErrEmptyAudio
	}

	log.Debug("Synthesized", "voice", v, "bytes", len(data))

	return audio.Clip{Data: data, Format: audio.FormatMP3}, nil
}
