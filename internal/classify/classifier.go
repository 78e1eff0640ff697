// Package classify decides manufacturer/trader/unclear per candidate. A
// language model weighs the extracted evidence when configured; a
// deterministic rule score answers when the model is absent or fails, so
// classification itself can never fail a run.
package classify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/model"
	"github.com/kulmaganbetov/china-factories-bot/pkg/llm"
)

// Classifier labels candidates from their evidence records.
type Classifier struct {
	client      llm.Client // nil disables the model path
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// New builds a classifier. A nil client makes it rules-only; it then never
// dials out.
func New(client llm.Client, cfg config.LLMConfig) *Classifier {
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.3
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{
		client:      client,
		temperature: temp,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
}

// Classify produces a verdict for one candidate. It never returns an error:
// any model failure selects the rule fallback, and empty evidence resolves
// to unclear without a model call.
func (c *Classifier) Classify(ctx context.Context, req model.ProductRequest, candidate model.SearchCandidate, ev model.Evidence) model.Verdict {
	if c.client == nil || ev.Empty() {
		return classifyByRules(ev)
	}

	verdict, err := c.classifyWithModel(ctx, req, candidate, ev)
	if err != nil {
		zap.L().Debug("model classification failed, using rules",
			zap.String("url", candidate.URL),
			zap.Error(err),
		)
		return classifyByRules(ev)
	}
	return verdict
}

// classifyWithModel returns (verdict, error); the caller treats any error,
// transport or schema, as the signal to use the rule path.
func (c *Classifier) classifyWithModel(ctx context.Context, req model.ProductRequest, candidate model.SearchCandidate, ev model.Evidence) (model.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildUserPrompt(candidate, req, ev),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return model.Verdict{}, eris.Wrap(err, "classify: model call")
	}
	return parseVerdict(raw)
}
