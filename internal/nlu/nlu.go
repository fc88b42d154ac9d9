package nlu

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"

	"siloso/internal/conversation"
)

const (
	DefaultModel = "gpt-4.1-mini"
	Temperature  = 0.4
)

var (
	ErrNoChoices   = errors.New("no choices in response")
	ErrEmptyAnswer = errors.New("empty message content")
)

// Generator answers questions in the context of a conversation.
type Generator struct {
	client openai.Client
	model  string
}

func NewGenerator(client openai.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Answer records the question in st, asks the model with the whole
// conversation and records the reply. When the call fails the question stays
// in st without an answer.
func (g *Generator) Answer(ctx context.Context, st *conversation.State, question string) (string, error) {
	if err := st.Append(conversation.RoleUser, question); err != nil {
		return "", err
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    toParams(st.Messages()),
		Model:       openai.ChatModel(g.model),
		Temperature: openai.Float(Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	answer := resp.Choices[0].Message.Content
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	log.Debug("Answered", "model", g.model, "context", st.Len())

	if err := st.Append(conversation.RoleAssistant, answer); err != nil {
		return "", err
	}
	return answer, nil
}

func toParams(msgs []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case conversation.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case conversation.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		}
	}
	return out
}
