package classifier

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Inferencer sends a system instruction and the user text to a language model
// and returns the raw text of its reply. Implementations may block; callers
// run them on a workers.Pool.
type Inferencer interface {
	Infer(ctx context.Context, system, user string) (string, error)
}

// OpenAIOptions configures the OpenAI-backed Inferencer.
type OpenAIOptions struct {
	APIKey      string
	Model       string  // e.g. "gpt-4o-mini"
	BaseURL     string  // optional, for compatible gateways
	MaxTokens   int     // reply cap; 0 leaves the provider default
	Temperature float64 // low values keep the JSON shape stable
}

// OpenAIInferencer calls a chat-completions model through langchaingo.
type OpenAIInferencer struct {
	llm  llms.Model
	opts OpenAIOptions
}

var errEmptyCompletion = errors.New("empty completion")

// NewOpenAIInferencer builds the client. It does not contact the provider.
func NewOpenAIInferencer(opts OpenAIOptions) (*OpenAIInferencer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errNoCredential
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	clientOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, err
	}
	return &OpenAIInferencer{llm: llm, opts: opts}, nil
}

// Infer implements Inferencer.
func (o *OpenAIInferencer) Infer(ctx context.Context, system, user string) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(o.opts.Temperature)}
	if o.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.opts.MaxTokens))
	}

	resp, err := o.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}, callOpts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", errEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
