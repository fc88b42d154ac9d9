package conversation

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrSystemRole = errors.New("system message can only be the seed")

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the running transcript of one session. The first message is
// always the seed system prompt.
type State struct {
	msgs []Message
}

func New(seed string) *State {
	return &State{
		msgs: []Message{{Role: RoleSystem, Content: seed}},
	}
}

func (s *State) Seed() Message {
	return s.msgs[0]
}

// Append adds user or assistant messages after the existing ones.
func (s *State) Append(role Role, content string) error {
	switch role {
	case RoleUser, RoleAssistant:
	case RoleSystem:
		return ErrSystemRole
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	s.msgs = append(s.msgs, Message{Role: role, Content: content})
	return nil
}

// Messages returns a copy, seed included.
func (s *State) Messages() []Message {
	return append([]Message(nil), s.msgs...)
}

// History returns everything after the seed.
func (s *State) History() []Message {
	return append([]Message(nil), s.msgs[1:]...)
}

func (s *State) Len() int {
	return len(s.msgs)
}

func (s *State) Reset() {
	clear(s.msgs[1:])
	s.msgs = s.msgs[:1]
}
