package nlu_test

import (
	"context"
	"errors"
	"testing"

	"siloso/internal/conversation"
	"siloso/internal/nlu"
	"siloso/internal/openaitest"
)

const seed = "You are a knowledgeable, friendly voice guide."

func TestGenerator_AnswerAppendsExchange(t *testing.T) {
	srv := openaitest.NewServer()
	defer srv.Close()

	gen := nlu.NewGenerator(srv.Client(), "")
	st := conversation.New(seed)

	answer, err := gen.Answer(context.Background(), st, "What is the Surrender Chamber?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "It depicts the 1942 British surrender..." {
		t.Errorf("answer: got %q", answer)
	}

	msgs := st.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Role != conversation.RoleUser || msgs[1].Content != "What is the Surrender Chamber?" {
		t.Errorf("user message: %+v", msgs[1])
	}
	if msgs[2].Role != conversation.RoleAssistant || msgs[2].Content != answer {
		t.Errorf("assistant message: %+v", msgs[2])
	}
}

func TestGenerator_SendsWholeConversation(t *testing.T) {
	srv := openaitest.NewServer()
	defer srv.Close()

	gen := nlu.NewGenerator(srv.Client(), "gpt-test")
	st := conversation.New(seed)

	if _, err := gen.Answer(context.Background(), st, "first"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := gen.Answer(context.Background(), st, "second"); err != nil {
		t.Fatalf("second: %v", err)
	}

	reqs := srv.ChatRequests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 chat requests, got %d", len(reqs))
	}

	first := reqs[0]
	if first.Model != "gpt-test" {
		t.Errorf("model: got %q", first.Model)
	}
	if first.Temperature != nlu.Temperature {
		t.Errorf("temperature: got %v, want %v", first.Temperature, nlu.Temperature)
	}
	if len(first.Messages) != 2 || first.Messages[0].Role != "system" || first.Messages[1].Content != "first" {
		t.Errorf("first request messages: %+v", first.Messages)
	}

	// seed, first q, first a, second q
	second := reqs[1].Messages
	if len(second) != 4 {
		t.Fatalf("second request: expected 4 messages, got %d", len(second))
	}
	wantRoles := []string{"system", "user", "assistant", "user"}
	for i, m := range second {
		if m.Role != wantRoles[i] {
			t.Errorf("message %d role: got %q, want %q", i, m.Role, wantRoles[i])
		}
	}
	if second[0].Content != seed {
		t.Errorf("seed not sent first: %q", second[0].Content)
	}
}

func TestGenerator_FailureKeepsQuestion(t *testing.T) {
	srv := openaitest.NewServer()
	defer srv.Close()
	srv.Set(func(s *openaitest.Server) { s.AnswerErr = "model overloaded" })

	gen := nlu.NewGenerator(srv.Client(), "")
	st := conversation.New(seed)

	if _, err := gen.Answer(context.Background(), st, "What is the Surrender Chamber?"); err == nil {
		t.Fatal("expected error")
	}

	hist := st.History()
	if len(hist) != 1 {
		t.Fatalf("expected only the question in history, got %+v", hist)
	}
	if hist[0].Role != conversation.RoleUser {
		t.Errorf("expected user role, got %s", hist[0].Role)
	}
	if len(srv.ChatRequests()) != 1 {
		t.Errorf("no retries expected, got %d requests", len(srv.ChatRequests()))
	}
}

func TestGenerator_EmptyAnswer(t *testing.T) {
	srv := openaitest.NewServer()
	defer srv.Close()
	srv.Set(func(s *openaitest.Server) { s.Answer = "" })

	gen := nlu.NewGenerator(srv.Client(), "")
	st := conversation.New(seed)

	_, err := gen.Answer(context.Background(), st, "hello")
	if !errors.Is(err, nlu.ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
	if st.Len() != 2 {
		t.Errorf("expected seed + question, got %d messages", st.Len())
	}
}
