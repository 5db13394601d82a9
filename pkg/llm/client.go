package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Client is the subset of the OpenAI client the enrichment engine needs.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func NewClient(APIKey, URL, timeout string) *openai.Client {
	if APIKey == "" {
		APIKey = "sk-xxx"
	}
	config := openai.DefaultConfig(APIKey)
	if URL != "" {
		config.BaseURL = URL
	}

	dur, err := time.ParseDuration(timeout)
	if err != nil {
		dur = 150 * time.Second
	}

	config.HTTPClient = &http.Client{
		Timeout: dur,
	}
	return openai.NewClientWithConfig(config)
}
