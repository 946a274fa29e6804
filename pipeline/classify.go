package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/docflow/llm"
	"github.com/sweetpotato0/docflow/pkg/logging"
)

// minClassifyLength is the shortest trimmed input worth a remote call.
const minClassifyLength = 10

// classifier obtains an intent label with a rationale from the LLM. Every
// failure mode degrades to the "Other" intent; this stage never errors.
type classifier struct {
	client  llm.Client
	cfg     *Config
	intents map[string]struct{}
	logger  *slog.Logger
}

func newClassifier(client llm.Client, cfg *Config) *classifier {
	intents := make(map[string]struct{}, len(cfg.SupportedIntents))
	for _, intent := range cfg.SupportedIntents {
		intents[intent] = struct{}{}
	}
	return &classifier{
		client:  client,
		cfg:     cfg,
		intents: intents,
		logger:  logging.WithComponent("classifier"),
	}
}

func (c *classifier) Classify(ctx context.Context, text string) Classification {
	if len(strings.TrimSpace(text)) < minClassifyLength {
		return Classification{Intent: IntentOther, Reasoning: "content too short"}
	}

	prompt := strings.ReplaceAll(c.cfg.ClassifyPrompt, "{{intents}}", strings.Join(c.cfg.SupportedIntents, ", "))
	prompt = strings.ReplaceAll(prompt, "{{text}}", c.truncate(text))

	raw, err := c.client.Complete(ctx, &llm.Request{
		System: c.cfg.ClassifySystem,
		Prompt: prompt,
		Model:  c.cfg.Model,
	})
	if err != nil {
		c.logger.Warn("classification call failed", "error", err)
		return Classification{Intent: IntentOther, Reasoning: "classification failed or malformed"}
	}

	result, err := llm.Decode[Classification](raw)
	if err != nil {
		c.logger.Warn("classification response not decodable", "error", err)
		return Classification{Intent: IntentOther, Reasoning: "classification failed or malformed"}
	}
	if result.Intent == "" && result.Reasoning == "" {
		return Classification{Intent: IntentOther, Reasoning: "classification failed or malformed"}
	}

	if _, ok := c.intents[result.Intent]; !ok {
		c.logger.Warn("model proposed unsupported intent", "intent", result.Intent)
		result.Reasoning += fmt.Sprintf(" (original intent %q not in supported list, reclassified as Other)", result.Intent)
		result.Intent = IntentOther
	}
	return *result
}

// truncate bounds classification input, preferring token-accurate cuts when
// a tokenizer is configured.
func (c *classifier) truncate(text string) string {
	if c.cfg.tokenizer != nil {
		return c.cfg.tokenizer.Truncate(text, c.cfg.MaxClassifyTokens)
	}
	runes := []rune(text)
	if len(runes) <= c.cfg.MaxClassifyChars {
		return text
	}
	return string(runes[:c.cfg.MaxClassifyChars]) + "..."
}
