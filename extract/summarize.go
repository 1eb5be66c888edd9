package extract

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer condenses extracted content into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// maxSummaryInput clips the content sent for summarization.
const maxSummaryInput = 24000

const summarySystemPrompt = "You summarize articles for someone listening rather than reading. " +
	"Reply with a few short plain-text paragraphs. No markdown, no lists."

// OpenAISummarizer summarizes through an OpenAI-compatible chat API.
// Each call is a single attempt.
type OpenAISummarizer struct {
	client *openai.Client
	model  string
}

var _ Summarizer = (*OpenAISummarizer)(nil)

// NewOpenAISummarizer creates a summarizer using the given API key and
// model. An empty baseURL means the public OpenAI endpoint.
func NewOpenAISummarizer(apiKey, baseURL, model string) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, errors.New("summarizer: api key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAISummarizer{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, content string) (string, error) {
	content = clipText(content, maxSummaryInput)
	if content == "" {
		return "", ErrEmptyContent
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summarizer: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GatewaySummarizer summarizes through the extraction gateway.
type GatewaySummarizer struct {
	client *Client
}

var _ Summarizer = (*GatewaySummarizer)(nil)

// NewGatewaySummarizer wraps an existing gateway client.
func NewGatewaySummarizer(client *Client) *GatewaySummarizer {
	return &GatewaySummarizer{client: client}
}

func (s *GatewaySummarizer) Summarize(ctx context.Context, content string) (string, error) {
	content = clipText(content, maxSummaryInput)
	if content == "" {
		return "", ErrEmptyContent
	}
	return s.client.Summarize(ctx, content)
}

// clipText truncates at a word boundary near the byte limit.
func clipText(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	clipped := s[:limit]
	if i := strings.LastIndexByte(clipped, ' '); i > 0 {
		clipped = clipped[:i]
	}
	return clipped
}
