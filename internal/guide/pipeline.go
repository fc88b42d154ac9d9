package guide

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"siloso/internal/audio"
	"siloso/internal/conversation"
	"siloso/internal/voice"
)

type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip) (string, error)
}

// Answerer records the exchange in st as a side effect.
type Answerer interface {
	Answer(ctx context.Context, st *conversation.State, question string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, v voice.Voice) (audio.Clip, error)
}

type Stage int

const (
	StageIdle Stage = iota
	StageTranscribing
	StageAnswering
	StageSynthesizing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageTranscribing:
		return "transcribing"
	case StageAnswering:
		return "answering"
	case StageSynthesizing:
		return "synthesizing"
	case StageDone:
		return "done"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

var ErrEmptyTranscript = errors.New("nothing was heard in the recording")

// StageError ends a turn. Stage is where the turn stopped.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.label() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) label() string {
	switch e.Stage {
	case StageTranscribing:
		return "Transcription failed"
	case StageAnswering:
		return "Answer generation failed"
	case StageSynthesizing:
		return "Speech synthesis failed"
	}
	return "Turn failed"
}

// Turn is the outcome of one send. Fields are filled up to the stage that
// was reached; a failed synthesis still carries the answer text.
type Turn struct {
	Question string
	Answer   string
	Audio    audio.Clip
	Stage    Stage
	Err      error
}

func (t Turn) Failed() bool { return t.Err != nil }

type Pipeline struct {
	stt    Transcriber
	answer Answerer
	tts    Synthesizer
}

func NewPipeline(stt Transcriber, answer Answerer, tts Synthesizer) *Pipeline {
	return &Pipeline{stt: stt, answer: answer, tts: tts}
}

// Run drives one turn: transcribe, answer, synthesize. It stops at the
// first failing stage.
func (p *Pipeline) Run(ctx context.Context, st *conversation.State, clip audio.Clip, v voice.Voice) Turn {
	turn := Turn{Stage: StageTranscribing}
	start := time.Now()

	question, err := p.stt.Transcribe(ctx, clip)
	if err == nil && strings.TrimSpace(question) == "" {
		err = ErrEmptyTranscript
	}
	if err != nil {
		return fail(turn, err)
	}
	turn.Question = question
	log.Info("Transcribed", "text", question)

	turn.Stage = StageAnswering
	answer, err := p.answer.Answer(ctx, st, question)
	if err != nil {
		return fail(turn, err)
	}
	turn.Answer = answer
	log.Info("Answered", "chars", len(answer))

	turn.Stage = StageSynthesizing
	speech, err := p.tts.Synthesize(ctx, answer, v)
	if err != nil {
		return fail(turn, err)
	}
	turn.Audio = speech

	turn.Stage = StageDone
	log.Info("Turn done", "voice", v, "audio_bytes", len(speech.Data), "took", time.Since(start))
	return turn
}

func fail(turn Turn, err error) Turn {
	turn.Err = &StageError{Stage: turn.Stage, Err: err}
	log.Error("Turn failed", "stage", turn.Stage, "err", err)
	return turn
}
