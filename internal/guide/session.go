package guide

import (
	"context"
	"errors"
	log "log/slog"
	"sync"

	"siloso/internal/audio"
	"siloso/internal/conversation"
	"siloso/internal/voice"
	"siloso/pkg/audioconv"
)

var ErrNoClip = errors.New("no recording captured since the last send")

// Session is one visitor's interaction. It owns the conversation, the
// selected voice and the clip waiting to be sent. Every action is handled
// to completion before the next one starts.
type Session struct {
	id       string
	profile  Profile
	pipeline *Pipeline

	mu      sync.Mutex
	state   *conversation.State
	voice   voice.Voice
	pending audio.Clip
}

func NewSession(id string, profile Profile, pipeline *Pipeline, v voice.Voice) *Session {
	if v == "" {
		v = voice.Default
	}
	return &Session{
		id:       id,
		profile:  profile,
		pipeline: pipeline,
		state:    conversation.New(profile.Prompt),
		voice:    v,
	}
}

func (s *Session) ID() string { return s.id }

// Capture stores a freshly recorded clip and enables sending. Empty clips
// are ignored.
func (s *Session) Capture(clip audio.Clip) View {
	if !clip.Empty() && log.Default().Enabled(context.Background(), log.LevelDebug) {
		args := []any{"session", s.id, "bytes", len(clip.Data), "format", clip.Format}
		if d, err := audioconv.Duration(clip); err == nil {
			args = append(args, "duration", d)
		}
		log.Debug("Captured clip", args...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !clip.Empty() {
		s.pending = clip
	}
	return s.render(nil)
}

// Send runs one turn with the pending clip. Without a pending clip the
// pipeline is not touched and ErrNoClip is returned with the current view.
func (s *Session) Send(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.Empty() {
		return s.render(nil), ErrNoClip
	}

	clip := s.pending
	s.pending = audio.Clip{}

	turn := s.pipeline.Run(ctx, s.state, clip, s.voice)
	return s.render(&turn), nil
}

// Reset drops every exchange, keeping the seed prompt.
func (s *Session) Reset() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Reset()
	log.Info("Conversation reset", "session", s.id)
	return s.render(nil)
}

func (s *Session) SelectVoice(id string) (View, error) {
	v, err := voice.Parse(id)
	if err != nil {
		return s.View(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.voice = v
	return s.render(nil), nil
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render(nil)
}

// Messages returns the full conversation, seed included.
func (s *Session) Messages() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Messages()
}

func (s *Session) render(turn *Turn) View {
	v := View{
		Session:      s.id,
		Title:        s.profile.Title,
		Instructions: s.profile.Instructions,
		About:        s.profile.About,
		Voices:       voice.All(),
		Voice:        s.voice,
		SendEnabled:  !s.pending.Empty(),
		History:      historyLines(s.state.History()),
	}
	if v.SendEnabled {
		v.Notice = NoticeCaptured
	}
	if turn != nil {
		v.Turn = newTurnView(*turn)
	}
	return v
}
