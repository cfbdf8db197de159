// Package openai implements the reply generation contract on the OpenAI
// chat completion API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"talkline/internal/domain"
	"talkline/internal/ports"
)

// Config controls OpenAI API access.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Generator produces counterpart replies, pick-up decisions and farewells.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(cfg Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Reply generates the counterpart's next utterance. An empty input requests
// a call-opening greeting.
func (g *Generator) Reply(ctx context.Context, contact ports.ContactContext, history []domain.CallMessage, input string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: personaPrompt(contact)},
	}
	messages = append(messages, historyMessages(history)...)
	if input == "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: "(The call just connected. Greet the caller briefly, in character.)",
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: input,
		})
	}

	return g.complete(ctx, messages)
}

// DecideAccept asks whether the counterpart picks up a call. Errors and
// unparseable answers fail open: the call is accepted.
func (g *Generator) DecideAccept(ctx context.Context, contact ports.ContactContext) bool {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: personaPrompt(contact)},
		{
			Role: openai.ChatMessageRoleUser,
			Content: "The user is calling you right now. Decide whether you pick up. " +
				"Answer with exactly one word: ACCEPT or REJECT.",
		},
	}

	answer, err := g.complete(ctx, messages)
	if err != nil {
		return true
	}
	return !strings.Contains(strings.ToUpper(answer), "REJECT")
}

// Farewell generates a one-line goodbye for the end of the call.
func (g *Generator) Farewell(ctx context.Context, contact ports.ContactContext, history []domain.CallMessage) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: personaPrompt(contact)},
	}
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "(The call is about to end. Say a short goodbye, one sentence, in character.)",
	})

	return g.complete(ctx, messages)
}

func (g *Generator) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func personaPrompt(contact ports.ContactContext) string {
	var b strings.Builder
	b.WriteString("You are on a voice call. Answer with short spoken sentences, no markup, no stage directions.")
	if contact.Name != "" {
		fmt.Fprintf(&b, " Your name is %s.", contact.Name)
	}
	if contact.Persona != "" {
		b.WriteString(" ")
		b.WriteString(contact.Persona)
	}
	return b.String()
}

func historyMessages(history []domain.CallMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Speaker == domain.SpeakerCounterpart {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Text})
	}
	return out
}
