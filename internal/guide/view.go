package guide

import (
	"fmt"
	"strings"

	"siloso/internal/audio"
	"siloso/internal/conversation"
	"siloso/internal/voice"
)

const NoticeCaptured = "Recording captured! Send it to the guide."

const (
	SpeakerUser  = "You"
	SpeakerGuide = "Guide"
)

// View is everything a surface needs to draw the page after an action.
type View struct {
	Session      string        `json:"session"`
	Title        string        `json:"title"`
	Instructions []string      `json:"instructions"`
	About        string        `json:"about"`
	Voices       []voice.Voice `json:"voices"`
	Voice        voice.Voice   `json:"voice"`
	SendEnabled  bool          `json:"send_enabled"`
	Notice       string        `json:"notice,omitempty"`
	Turn         *TurnView     `json:"turn,omitempty"`
	History      []Line        `json:"history"`
}

type Line struct {
	Role    conversation.Role `json:"role"`
	Speaker string            `json:"speaker"`
	Content string            `json:"content"`
}

func (l Line) String() string {
	return l.Speaker + ": " + l.Content
}

type TurnView struct {
	Question    string       `json:"question,omitempty"`
	Answer      string       `json:"answer,omitempty"`
	Audio       []byte       `json:"audio,omitempty"`
	AudioFormat audio.Format `json:"audio_format,omitempty"`
	Stage       string       `json:"stage"`
	Error       string       `json:"error,omitempty"`
}

func newTurnView(t Turn) *TurnView {
	tv := &TurnView{
		Question: t.Question,
		Answer:   t.Answer,
		Stage:    t.Stage.String(),
	}
	if !t.Audio.Empty() {
		tv.Audio = t.Audio.Data
		tv.AudioFormat = t.Audio.Format
	}
	if t.Err != nil {
		tv.Error = t.Err.Error()
	}
	return tv
}

func historyLines(msgs []conversation.Message) []Line {
	lines := make([]Line, 0, len(msgs))
	for _, m := range msgs {
		speaker := SpeakerGuide
		if m.Role == conversation.RoleUser {
			speaker = SpeakerUser
		}
		lines = append(lines, Line{Role: m.Role, Speaker: speaker, Content: m.Content})
	}
	return lines
}

// Text renders the view as plain text for terminal surfaces.
func (v View) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", v.Title)
	for i, in := range v.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, in)
	}
	fmt.Fprintf(&b, "voice: %s\n", v.Voice)
	if v.Notice != "" {
		fmt.Fprintf(&b, "%s\n", v.Notice)
	}

	if t := v.Turn; t != nil {
		b.WriteString("\n")
		if t.Question != "" {
			fmt.Fprintf(&b, "You said: %s\n", t.Question)
		}
		if t.Answer != "" {
			fmt.Fprintf(&b, "Guide says: %s\n", t.Answer)
		}
		if t.Error != "" {
			fmt.Fprintf(&b, "error: %s\n", t.Error)
		}
	}

	b.WriteString("\nConversation history\n")
	for _, l := range v.History {
		fmt.Fprintf(&b, "%s\n", l)
	}
	return b.String()
}
