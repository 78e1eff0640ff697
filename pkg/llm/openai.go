package llm

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// openaiClient implements Client over the OpenAI chat completions API.
type openaiClient struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-backed client. baseURL overrides the API
// endpoint when non-empty.
func NewOpenAI(apiKey, model, baseURL string) Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openaiClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *openaiClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("llm: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
