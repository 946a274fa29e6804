package pipeline

import (
	"fmt"
	"path/filepath"
)

// Format is the detected document format.
type Format string

const (
	FormatStructured Format = "Structured"
	FormatText       Format = "Text"
	FormatEmail      Format = "Email"
	FormatPDF        Format = "PDF"
	FormatUnknown    Format = "Unknown"
)

// Target identifies the extractor a document is routed to.
type Target int

const (
	NoRoute Target = iota
	TargetSchema
	TargetEmail
)

func (t Target) String() string {
	switch t {
	case TargetSchema:
		return "schema-extractor"
	case TargetEmail:
		return "email-extractor"
	default:
		return "no-route"
	}
}

// IntentOther is the fallback intent for short, malformed, or
// out-of-enumeration classifications.
const IntentOther = "Other"

// Audit statuses emitted by the pipeline stages.
const (
	StatusReceived               = "Received"
	StatusClassified             = "Classified"
	StatusProcessed              = "Processed"
	StatusProcessedWithAnomalies = "ProcessedWithAnomalies"
	StatusProcessedNoSchema      = "ProcessedNoSchema"
	StatusNoRoute                = "NoRoute"
	StatusError                  = "Error"
)

// Agent names recorded in audit events.
const (
	classifierAgent = "classifier"
	schemaAgent     = "schema-extractor"
	emailAgent      = "email-extractor"
)

// Document is one pipeline input: a file path, a raw string, or an
// already-parsed structured value. Immutable once created; its lifetime is
// a single Process call.
type Document struct {
	SourceID string

	path  string
	raw   string
	value map[string]any
	kind  documentKind
}

type documentKind int

const (
	docFile documentKind = iota
	docString
	docValue
)

// FromFile creates a document backed by a file on disk.
func FromFile(path string) *Document {
	return &Document{SourceID: filepath.Base(path), path: path, kind: docFile}
}

// FromString creates a document from raw text (which may itself be a
// serialized structured value).
func FromString(text string) *Document {
	return &Document{SourceID: "raw_text_input", raw: text, kind: docString}
}

// FromValue creates a document from an already-parsed structured value.
func FromValue(value map[string]any) *Document {
	return &Document{SourceID: "structured_input", value: value, kind: docValue}
}

// WithSource overrides the source identifier recorded in audit events.
func (d *Document) WithSource(id string) *Document {
	d.SourceID = id
	return d
}

// EmailContent is the payload handed to the email extractor: body text plus
// whatever headers were recoverable. Origin names the originating file when
// the content was synthesized from one.
type EmailContent struct {
	Text    string
	Headers map[string]string
	Origin  string
}

// Detection is the format detector's output. Exactly one of Value, Text, or
// Email carries the payload, depending on Format.
type Detection struct {
	Format Format
	Value  any
	Text   string
	Email  *EmailContent
}

// Classification is the intent classifier's output. Intent is always a
// member of the configured intent list.
type Classification struct {
	Intent    string `json:"intent"`
	Reasoning string `json:"reasoning"`
}

// CRMRecord is the email extractor's output.
type CRMRecord struct {
	Sender        string   `json:"sender_email"`
	Subject       string   `json:"subject"`
	Intent        string   `json:"intent"`
	Urgency       string   `json:"urgency"`
	Summary       string   `json:"summary"`
	Actions       []string `json:"key_entities_actions"`
	Degraded      bool     `json:"degraded,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`
}

// Summary is the best-effort result of one pipeline run.
type Summary struct {
	ConversationID string
	SourceID       string
	Format         Format
	Intent         string
	Reasoning      string
	Target         Target
	Extracted      map[string]any
	Anomalies      []string
	CRM            *CRMRecord
}

// FormatError marks input that could not be read or was of an unsupported
// kind. It is terminal for the document but never for the caller.
type FormatError struct {
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format detection failed for %s: %s", e.Source, e.Reason)
}
