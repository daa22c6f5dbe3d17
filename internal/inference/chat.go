package inference

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyCompletion = errors.New("chat completion returned no choices")

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	transport
	model       string
	temperature float64
}

func NewChatClient(baseURL string, apiKey string, model string, temperature float64, opts ...Option) *ChatClient {
	settings := applyOptions(opts)
	client := &ChatClient{
		transport:   newTransport(baseURL, apiKey, settings.httpClient),
		model:       model,
		temperature: temperature,
	}
	if settings.policy != nil {
		client.policy = *settings.policy
	}
	return client
}

// Complete returns the content of the first choice.
func (c *ChatClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	var resp chatResponse
	req := chatRequest{Model: c.model, Messages: messages, Temperature: c.temperature}
	if err := c.postJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

const reflectionSystemPrompt = `You are a warm, supportive journaling companion.
Reply to the user's journal entry in two or three sentences.
Acknowledge how they feel and offer one gentle, practical thought.`

// Reflect produces a short empathetic reply to a journal entry.
func (c *ChatClient) Reflect(ctx context.Context, text string) (string, error) {
	reply, err := c.Complete(ctx, []ChatMessage{
		{Role: "system", Content: reflectionSystemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
