package pipeline

import (
	"github.com/sweetpotato0/docflow/config"
	"github.com/sweetpotato0/docflow/schema"
)

// Tokenizer bounds classification input by token count instead of the
// character fallback.
type Tokenizer interface {
	Truncate(text string, maxTokens int) string
}

// Config controls pipeline behaviour. It groups the intent enumeration,
// routing configuration, and prompt templates so callers can construct
// reproducible pipelines from a single struct.
type Config struct {
	Name             string   // Logical name for tracing/logging
	Model            string   // Model identifier passed to the LLM client
	SupportedIntents []string // Closed intent enumeration; must contain "Other"
	EmailLikeIntents []string // Intents that route free text to the email extractor

	MaxClassifyChars  int // Character bound on classification input
	MaxClassifyTokens int // Token bound, used when a tokenizer is configured
	MaxEmailChars     int // Character bound on email extraction input

	ClassifyPrompt string // Classification template; {{intents}} and {{text}} placeholders
	ClassifySystem string // Classification system message
	EmailPrompt    string // Extraction template; {{format}}, {{intent}}, {{sender}}, {{text}}
	EmailSystem    string // Extraction system message

	tokenizer Tokenizer
	schemas   *schema.Registry
}

// DefaultIntents is the built-in closed intent enumeration.
func DefaultIntents() []string {
	return []string{
		"Invoice", "RFQ", "Complaint", "Regulation", "General Inquiry",
		"Order Confirmation", "Job Application", "Feedback", "Other",
	}
}

// DefaultEmailLikeIntents lists the intents whose free-text documents are
// worth a CRM extraction pass.
func DefaultEmailLikeIntents() []string {
	return []string{
		"RFQ", "Complaint", "General Inquiry", "Invoice",
		"Order Confirmation", "Job Application", "Feedback",
	}
}

// Option customises the pipeline configuration.
type Option func(*Config)

// WithName sets the logical pipeline name used in logs and traces.
func WithName(name string) Option {
	return func(cfg *Config) {
		if name != "" {
			cfg.Name = name
		}
	}
}

// WithModel sets the model identifier sent with every LLM request.
func WithModel(model string) Option {
	return func(cfg *Config) {
		if model != "" {
			cfg.Model = model
		}
	}
}

// WithIntents replaces the supported intent enumeration. The list must
// include "Other"; validation enforces this.
func WithIntents(intents []string) Option {
	return func(cfg *Config) {
		if len(intents) > 0 {
			cfg.SupportedIntents = intents
		}
	}
}

// WithEmailLikeIntents replaces the set of intents that route plain text to
// the email extractor.
func WithEmailLikeIntents(intents []string) Option {
	return func(cfg *Config) {
		cfg.EmailLikeIntents = intents
	}
}

// WithMaxClassifyChars bounds how much text is sent for classification.
func WithMaxClassifyChars(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxClassifyChars = n
		}
	}
}

// WithMaxEmailChars bounds how much text is sent for CRM extraction.
func WithMaxEmailChars(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxEmailChars = n
		}
	}
}

// WithTokenizer truncates classification input by token count rather than
// characters.
func WithTokenizer(t Tokenizer, maxTokens int) Option {
	return func(cfg *Config) {
		if t != nil && maxTokens > 0 {
			cfg.tokenizer = t
			cfg.MaxClassifyTokens = maxTokens
		}
	}
}

// WithClassifyPrompt overrides the classification prompt template.
func WithClassifyPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.ClassifyPrompt = prompt
		}
	}
}

// WithEmailPrompt overrides the CRM extraction prompt template.
func WithEmailPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.EmailPrompt = prompt
		}
	}
}

// WithSchemas plugs in a custom schema registry. Intents without a
// registered schema pass values through with a single anomaly.
func WithSchemas(reg *schema.Registry) Option {
	return func(cfg *Config) {
		if reg != nil {
			cfg.schemas = reg
		}
	}
}

func defaultConfig() *Config {
	reg := schema.NewRegistry()
	reg.Register("RFQ", schema.RFQ())

	return &Config{
		Name:             "docflow",
		Model:            "gpt-4o-mini",
		SupportedIntents: DefaultIntents(),
		EmailLikeIntents: DefaultEmailLikeIntents(),
		MaxClassifyChars: 3500,
		MaxEmailChars:    3000,
		ClassifyPrompt: `Analyze the following text and classify its primary intent.
Choose one intent from this list: {{intents}}.
Provide a brief reasoning for your classification (1-2 sentences).

Text:
"""
{{text}}
"""

Respond ONLY in valid JSON format with keys "intent" and "reasoning".
Example: {"intent": "RFQ", "reasoning": "The text mentions requesting a quote for specific items."}`,
		ClassifySystem: "You are an expert text classification assistant. Your response MUST be a single, valid JSON object and nothing else. Choose an intent from the provided list.",
		EmailPrompt: `Analyze the following email content (originally from a {{format}} document with classified intent: {{intent}}).
Extract the following information for CRM usage:
1. Sender Email (if identifiable from text, otherwise use '{{sender}}' if provided).
2. A concise summary of the email (max 50 words).
3. Determine the urgency (Low, Medium, High).
4. List key entities or action items.

Email Text:
"""
{{text}}
"""

Respond in JSON format with keys: "sender_email", "summary", "urgency", "key_entities_actions".
Example: {"sender_email": "example@example.com", "summary": "Customer inquires about product X.", "urgency": "Medium", "key_entities_actions": ["Product X inquiry", "Follow up with customer"]}`,
		EmailSystem: "You are an expert email analysis assistant. Respond ONLY in valid JSON.",
		schemas:     reg,
	}
}

func applyOptions(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (cfg *Config) validate() error {
	v := config.NewValidator().
		RequireNonEmpty("name", cfg.Name).
		RequireNonEmpty("model", cfg.Model).
		RequireNonEmptyList("supported_intents", cfg.SupportedIntents).
		RequireSubset("email_like_intents", cfg.EmailLikeIntents, cfg.SupportedIntents).
		RequirePositive("max_classify_chars", cfg.MaxClassifyChars).
		RequirePositive("max_email_chars", cfg.MaxEmailChars)

	// Coercion of unrecognised intents depends on "Other" being present.
	v.RequireSubset("supported_intents", []string{IntentOther}, cfg.SupportedIntents)

	return v.Error()
}
