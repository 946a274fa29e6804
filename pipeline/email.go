package pipeline

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sweetpotato0/docflow/llm"
	"github.com/sweetpotato0/docflow/pkg/logging"
)

var senderRe = regexp.MustCompile(`[\w.+-]+@[\w.-]+`)

// unknownSender marks a sender the headers could not resolve.
const unknownSender = "Unknown"

// emailStage derives a CRM record from unstructured text: sender from
// headers, then summary, urgency and action items from the LLM. On call or
// parse failure it returns a degraded record with the locally-derivable
// fields; it never blocks the pipeline.
type emailStage struct {
	client llm.Client
	cfg    *Config
	logger *slog.Logger
}

type emailFields struct {
	Sender  string   `json:"sender_email"`
	Summary string   `json:"summary"`
	Urgency string   `json:"urgency"`
	Actions []string `json:"key_entities_actions"`
}

func newEmailStage(client llm.Client, cfg *Config) *emailStage {
	return &emailStage{
		client: client,
		cfg:    cfg,
		logger: logging.WithComponent("email-extractor"),
	}
}

func (e *emailStage) Extract(ctx context.Context, content *EmailContent, intent string, format Format) *CRMRecord {
	sender := senderFromHeaders(content.Headers)
	record := &CRMRecord{
		Sender:  sender,
		Subject: headerValue(content.Headers, "Subject", "N/A"),
		Intent:  intent,
	}

	prompt := strings.NewReplacer(
		"{{format}}", string(format),
		"{{intent}}", intent,
		"{{sender}}", sender,
		"{{text}}", e.truncate(content.Text),
	).Replace(e.cfg.EmailPrompt)

	raw, err := e.client.Complete(ctx, &llm.Request{
		System: e.cfg.EmailSystem,
		Prompt: prompt,
		Model:  e.cfg.Model,
	})
	if err != nil {
		e.logger.Warn("CRM extraction call failed", "error", err)
		record.Degraded = true
		record.FailureReason = "LLM extraction failed or returned invalid data"
		return record
	}

	fields, err := llm.Decode[emailFields](raw)
	if err != nil {
		e.logger.Warn("CRM extraction response not decodable", "error", err)
		record.Degraded = true
		record.FailureReason = "LLM extraction failed or returned invalid data"
		return record
	}

	// Prefer the model's sender only when the headers had none.
	if fields.Sender != "" && record.Sender == unknownSender {
		record.Sender = fields.Sender
	}
	record.Urgency = fields.Urgency
	record.Summary = fields.Summary
	record.Actions = fields.Actions
	return record
}

func (e *emailStage) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= e.cfg.MaxEmailChars {
		return text
	}
	return string(runes[:e.cfg.MaxEmailChars])
}

// senderFromHeaders pulls an address out of the From header, tolerating
// display names around it.
func senderFromHeaders(headers map[string]string) string {
	from := headerValue(headers, "From", "")
	if match := senderRe.FindString(from); match != "" {
		return match
	}
	return unknownSender
}

func headerValue(headers map[string]string, key, fallback string) string {
	if v, ok := headers[key]; ok && v != "" {
		return v
	}
	if v, ok := headers[strings.ToLower(key)]; ok && v != "" {
		return v
	}
	return fallback
}
