// Package advisor holds the language-model-backed paths (explanation
// generation, KPI summaries, and the Q&A relay) together with their
// deterministic, network-free fallbacks.
package advisor

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/consultai/internal/config"
	"github.com/sells-group/consultai/internal/resilience"
	"github.com/sells-group/consultai/pkg/anthropic"
)

// Generator relays prompts to the language-model collaborator. A nil
// client (no credential configured) makes every call take its fallback
// path. Configuration is passed in at construction; there is no ambient
// state.
type Generator struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
	retry  resilience.Config
}

// New builds a Generator. client may be nil when no API key is
// configured.
func New(client anthropic.Client, cfg config.AnthropicConfig) *Generator {
	return &Generator{
		client: client,
		cfg:    cfg,
		retry: resilience.Config{
			MaxAttempts:    2,
			InitialBackoff: 300 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			JitterFraction: 0.25,
			OnRetry:        resilience.Logger("anthropic create message"),
		},
	}
}

// complete sends one prompt and returns the model's text. Bounded by the
// configured timeout so a slow collaborator cannot stall the request.
func (g *Generator) complete(ctx context.Context, system, prompt string) (string, error) {
	if g.client == nil {
		return "", eris.New("advisor: no API credential configured")
	}

	timeout := time.Duration(g.cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := resilience.Do(ctx, g.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     g.cfg.Model,
			MaxTokens: g.cfg.MaxTokens,
			System:    system,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return "", eris.Wrap(err, "advisor: create message")
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", eris.New("advisor: model returned empty response")
	}

	zap.L().Debug("advisor: model response",
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return text, nil
}

// warningFor renders the reason a live call failed into the warning
// string surfaced alongside fallback output.
func warningFor(err error) string {
	return "language model unavailable: " + err.Error()
}
