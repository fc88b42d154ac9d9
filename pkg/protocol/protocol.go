package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

// Requests from a surface.
const (
	KindCapture Kind = "capture"
	KindSend    Kind = "send"
	KindAsk     Kind = "ask"
	KindReset   Kind = "reset"
	KindVoice   Kind = "voice"
	KindView    Kind = "view"
)

// Replies from the daemon.
const (
	KindRender Kind = "render"
	KindError  Kind = "error"
)

// Envelope is one websocket frame. Audio travels base64 encoded in JSON.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Content string          `json:"content,omitempty"`
	Audio   []byte          `json:"audio,omitempty"`
	Format  string          `json:"format,omitempty"`
	View    json.RawMessage `json:"view,omitempty"`
}

var ErrEmpty = errors.New("empty message")

func (k Kind) valid() bool {
	switch k {
	case KindCapture, KindSend, KindAsk, KindReset, KindVoice, KindView, KindRender, KindError:
		return true
	}
	return false
}

func Parse(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Kind.valid() {
		return nil, fmt.Errorf("unknown kind %q", env.Kind)
	}
	return &env, nil
}

func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Render wraps a view in a render envelope.
func Render(view any) (*Envelope, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("encode view: %w", err)
	}
	return &Envelope{Kind: KindRender, View: raw}, nil
}

// Error builds an error envelope. A view may be attached so the surface can
// redraw alongside the message.
func Error(msg string, view any) *Envelope {
	env := &Envelope{Kind: KindError, Content: msg}
	if view != nil {
		if raw, err := json.Marshal(view); err == nil {
			env.View = raw
		}
	}
	return env
}

// DecodeView unpacks the attached view into v.
func (e *Envelope) DecodeView(v any) error {
	if len(e.View) == 0 {
		return errors.New("no view attached")
	}
	return json.Unmarshal(e.View, v)
}
