package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/profile-harvest/pkg/ollama"
)

// Invoker sends a prompt to the language model and returns its raw text.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ModelError reports a failed model call: the endpoint was unreachable,
// answered with an error status, or returned an unreadable body.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return "model " + e.Model + ": " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// OllamaInvoker calls a local Ollama server.
type OllamaInvoker struct {
	client      ollama.Client
	model       string
	temperature *float64
	timeout     time.Duration
}

// NewOllamaInvoker wraps client. A zero timeout leaves calls bounded only by ctx.
func NewOllamaInvoker(client ollama.Client, model string, temperature *float64, timeout time.Duration) *OllamaInvoker {
	return &OllamaInvoker{
		client:      client,
		model:       model,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Invoke implements Invoker.
func (o *OllamaInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req := ollama.GenerateRequest{Model: o.model, Prompt: prompt}
	if o.temperature != nil {
		req.Options = &ollama.Options{Temperature: o.temperature}
	}

	start := time.Now()
	resp, err := o.client.Generate(ctx, req)
	if err != nil {
		return "", &ModelError{Model: o.model, Err: err}
	}

	zap.L().Debug("pipeline: model responded",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.PromptEvalCount),
		zap.Int("output_tokens", resp.EvalCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Response, nil
}
