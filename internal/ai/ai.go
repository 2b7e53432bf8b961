// Package ai adapts an OpenAI-compatible chat completion API to the content
// generator used by the request handler.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eduwrite/apiserver/config"
	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned by New when no API key is available.
var ErrNotConfigured = errors.New("ai client not configured")

// SystemPrompt restricts the model to the supported content types.
const SystemPrompt = `You are EduWrite, an educational and technical AI assistant.
You MUST follow the content structure exactly based on Content Type.
Allowed types: Educational: Explanation, Summary, Quiz, Interactive Lesson, Mind Map; Technical: Coding, Research Paper.
If the request is outside these, reply: "I am not aware of these questions."`

// ContentTypes lists the content types named in SystemPrompt.
var ContentTypes = []string{
	"Explanation",
	"Summary",
	"Quiz",
	"Interactive Lesson",
	"Mind Map",
	"Coding",
	"Research Paper",
}

// Prompt is a single content request.
type Prompt struct {
	Topic       string
	ContentType string
	Level       string
}

// UserMessage renders the prompt as the user turn of the conversation.
func (p Prompt) UserMessage() string {
	return fmt.Sprintf("Topic: %s\nContent Type: %s\nLevel: %s", p.Topic, p.ContentType, p.Level)
}

// Generator produces content for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// OpenAIGenerator calls a chat completion endpoint through go-openai.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// New constructs a generator from config. Groq and other OpenAI-compatible
// providers are reached by overriding the base URL.
func New(cfg config.AIConfig) (Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

// Generate sends the system instruction and the prompt and returns the
// first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserMessage()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
