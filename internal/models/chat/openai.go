package chat

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tiktoken-go/tokenizer"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/types"
)

// OpenAIChat implements Chat against the OpenAI chat completions API.
type OpenAIChat struct {
	client        *openai.Client
	model         string
	contextWindow int
	codec         tokenizer.Codec
}

// NewOpenAIChat creates the process-wide generation client.
func NewOpenAIChat(cfg *config.Config) (Chat, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}

	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer codec: %w", err)
	}

	return &OpenAIChat{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.OpenAI.ChatModel,
		contextWindow: cfg.Chat.ContextWindow,
		codec:         codec,
	}, nil
}

func (c *OpenAIChat) buildRequest(messages []Message, opts *ChatOptions) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	if opts != nil {
		req.Temperature = opts.Temperature
		req.MaxTokens = opts.MaxTokens
	}
	return req
}

// guardTokens warns when a composed prompt approaches the model context
// window. Generation is still attempted; the provider is the authority.
func (c *OpenAIChat) guardTokens(ctx context.Context, messages []Message) {
	if c.contextWindow <= 0 {
		return
	}
	total := 0
	for _, m := range messages {
		ids, _, err := c.codec.Encode(m.Content)
		if err != nil {
			return
		}
		total += len(ids)
	}
	if total > c.contextWindow {
		logger.Warnf(ctx, "composed prompt is %d tokens, over the %d token context window", total, c.contextWindow)
	}
}

// Chat performs one blocking generation call.
func (c *OpenAIChat) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
	c.guardTokens(ctx, messages)

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("chat completion call failed: %w: %v", types.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices: %w", types.ErrGeneration)
	}
	return &ChatResponse{Content: resp.Choices[0].Message.Content}, nil
}

// ChatStream opens a streaming generation call. Tokens arrive on the
// returned channel in emission order.
func (c *OpenAIChat) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamResponse, error) {
	c.guardTokens(ctx, messages)

	req := c.buildRequest(messages, opts)
	req.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion stream open failed: %w: %v", types.ErrGeneration, err)
	}

	out := make(chan StreamResponse)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				c.send(ctx, out, StreamResponse{Done: true})
				return
			}
			if err != nil {
				c.send(ctx, out, StreamResponse{
					Err: fmt.Errorf("chat completion stream failed: %w: %v", types.ErrGeneration, err),
				})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				if !c.send(ctx, out, StreamResponse{Content: delta}) {
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *OpenAIChat) send(ctx context.Context, out chan<- StreamResponse, resp StreamResponse) bool {
	select {
	case out <- resp:
		return true
	case <-ctx.Done():
		return false
	}
}
