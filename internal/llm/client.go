package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sokinpui/gpt.go/internal/prompt"
)

// Kind classifies a failed completion request.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimit
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate limit exceeded"
	case KindBadRequest:
		return "bad request"
	default:
		return "unexpected error"
	}
}

// TransportError is any failure talking to the model service. It is never retried.
type TransportError struct {
	Kind Kind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Options configures a Client.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	Instructions prompt.Instructions
	// Debug returns the built prompt instead of calling the service.
	Debug bool
}

// Client sends one conversation turn to a chat-completions endpoint.
type Client struct {
	api     *openai.Client
	model   string
	system  string
	timeout time.Duration
	debug   bool
	logger  *zap.Logger
}

// New creates a Client. No request is made until Send.
func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   opts.Model,
		system:  opts.Instructions.System(),
		timeout: opts.Timeout,
		debug:   opts.Debug,
		logger:  logger,
	}
}

// Send builds the prompt from history and message and returns the model's top reply.
func (c *Client) Send(ctx context.Context, history, message string) (string, error) {
	fullPrompt := prompt.Build(history, message)

	if c.debug {
		c.logger.Info("Debug mode is on; returning prompt.")
		return fullPrompt, nil
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	c.logger.Debug("Sending completion request",
		zap.String("model", c.model),
		zap.Int("system_len", len(c.system)),
		zap.Int("prompt_len", len(fullPrompt)))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.system},
			{Role: openai.ChatMessageRoleUser, Content: fullPrompt},
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Kind: KindUnknown, Err: errors.New("no completion returned")}
	}

	reply := resp.Choices[0].Message.Content
	c.logger.Debug("Completion received",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_len", len(reply)))
	return reply, nil
}

func classify(err error) *TransportError {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		status int
	)
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	kind := KindUnknown
	switch status {
	case http.StatusTooManyRequests:
		kind = KindRateLimit
	case http.StatusBadRequest:
		kind = KindBadRequest
	}
	return &TransportError{Kind: kind, Err: err}
}
