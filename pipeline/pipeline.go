// Package pipeline composes format detection, intent classification,
// routing, and extraction into a single document-processing workflow with a
// complete audit trail.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/docflow/audit"
	"github.com/sweetpotato0/docflow/llm"
	"github.com/sweetpotato0/docflow/pkg/logging"
	"github.com/sweetpotato0/docflow/pkg/telemetry"
)

// Pipeline wires the document workflow together. Each document traverses
// the stages synchronously; every stage decision is appended to the audit
// log before the next stage begins. Pipelines are safe for concurrent use;
// documents processed in parallel get independent conversations.
type Pipeline struct {
	cfg      *Config
	detector *detector
	classify *classifier
	routes   *router
	schemas  *schemaStage
	emails   *emailStage
	log      *audit.Log
	tracer   trace.Tracer
	logger   *slog.Logger
}

// New creates a fully wired pipeline.
func New(client llm.Client, log *audit.Log, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("audit log is required")
	}

	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		detector: newDetector(),
		classify: newClassifier(client, cfg),
		routes:   newRouter(cfg),
		schemas:  newSchemaStage(cfg),
		emails:   newEmailStage(client, cfg),
		log:      log,
		tracer:   telemetry.Tracer("docflow/pipeline"),
		logger:   logging.WithComponent("pipeline"),
	}, nil
}

// Process runs one document through the pipeline under a fresh
// conversation ID.
func (p *Pipeline) Process(ctx context.Context, doc *Document) (*Summary, error) {
	return p.ProcessConversation(ctx, doc, uuid.NewString())
}

// ProcessConversation runs one document end to end. The returned error is
// non-nil only for a FormatError (unreadable or unsupported input); every
// downstream failure degrades to a best-effort summary instead. All stage
// decisions are recorded in the audit log either way.
func (p *Pipeline) ProcessConversation(ctx context.Context, doc *Document, conversationID string) (*Summary, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("document.source", doc.SourceID),
		))
	defer span.End()

	p.append(ctx, audit.Fields{
		ConversationID: conversationID,
		AgentName:      classifierAgent,
		Status:         StatusReceived,
		SourceID:       doc.SourceID,
		Details:        map[string]any{"input_kind": doc.kind.String()},
	})

	detection, err := p.detector.Detect(ctx, doc)
	if err != nil {
		p.append(ctx, audit.Fields{
			ConversationID: conversationID,
			AgentName:      classifierAgent,
			Status:         StatusError,
			SourceID:       doc.SourceID,
			ErrorMessage:   err.Error(),
		})
		p.logger.Error("format detection failed", "source", doc.SourceID, "error", err)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("document.format", string(detection.Format)))

	text := classificationText(detection)
	cctx, cspan := p.tracer.Start(ctx, "pipeline.classify")
	classification := p.classify.Classify(cctx, text)
	cspan.End()
	span.SetAttributes(attribute.String("document.intent", classification.Intent))

	p.append(ctx, audit.Fields{
		ConversationID: conversationID,
		AgentName:      classifierAgent,
		Status:         StatusClassified,
		SourceID:       doc.SourceID,
		Format:         string(detection.Format),
		Intent:         classification.Intent,
		Details:        map[string]any{"classification_reasoning": classification.Reasoning},
	})
	p.logger.Info("document classified",
		"conversation_id", conversationID,
		"source", doc.SourceID,
		"format", detection.Format,
		"intent", classification.Intent,
	)

	summary := &Summary{
		ConversationID: conversationID,
		SourceID:       doc.SourceID,
		Format:         detection.Format,
		Intent:         classification.Intent,
		Reasoning:      classification.Reasoning,
	}
	summary.Target = p.routes.Route(detection.Format, classification.Intent)

	switch summary.Target {
	case TargetSchema:
		p.runSchema(ctx, doc, detection, summary)
	case TargetEmail:
		p.runEmail(ctx, doc, detection, text, summary)
	default:
		p.append(ctx, audit.Fields{
			ConversationID: conversationID,
			AgentName:      classifierAgent,
			Status:         StatusNoRoute,
			SourceID:       doc.SourceID,
			Format:         string(detection.Format),
			Intent:         classification.Intent,
			Details: map[string]any{
				"message": fmt.Sprintf("no extractor route for format %s with intent %q", detection.Format, classification.Intent),
			},
		})
	}

	return summary, nil
}

func (p *Pipeline) runSchema(ctx context.Context, doc *Document, detection *Detection, summary *Summary) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract.schema")
	defer span.End()

	extracted, anomalies, status := p.schemas.Extract(detection.Value, summary.Intent)
	summary.Extracted = extracted
	summary.Anomalies = anomalies

	p.append(ctx, audit.Fields{
		ConversationID: summary.ConversationID,
		AgentName:      schemaAgent,
		Status:         status,
		SourceID:       doc.SourceID,
		Format:         string(detection.Format),
		Intent:         summary.Intent,
		ExtractedData:  extracted,
		Details:        map[string]any{"anomalies": anomalies},
	})
}

func (p *Pipeline) runEmail(ctx context.Context, doc *Document, detection *Detection, text string, summary *Summary) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract.email")
	defer span.End()

	content := detection.Email
	if content == nil {
		// Free text routed here gets wrapped as a synthetic email record.
		content = &EmailContent{Text: text, Headers: map[string]string{}}
		if detection.Format == FormatPDF {
			content.Origin = doc.path
		}
	}

	record := p.emails.Extract(ctx, content, summary.Intent, detection.Format)
	summary.CRM = record

	status := StatusProcessed
	if record.Degraded {
		status = StatusError
	}
	p.append(ctx, audit.Fields{
		ConversationID: summary.ConversationID,
		AgentName:      emailAgent,
		Status:         status,
		SourceID:       doc.SourceID,
		Format:         string(detection.Format),
		Intent:         summary.Intent,
		ExtractedData:  crmToMap(record),
		Details:        map[string]any{"original_headers": content.Headers},
		ErrorMessage:   record.FailureReason,
	})
}

// append records an audit event. Event creation only fails on a missing
// conversation ID, which Process always supplies, so failures here indicate
// a bug and are logged loudly.
func (p *Pipeline) append(ctx context.Context, fields audit.Fields) {
	if _, err := p.log.Append(ctx, fields); err != nil {
		p.logger.Error("audit append failed", "error", err)
	}
}

// classificationText produces the text handed to the classifier: structured
// values are pretty-printed, emails contribute their body.
func classificationText(detection *Detection) string {
	switch detection.Format {
	case FormatStructured:
		data, err := json.MarshalIndent(detection.Value, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", detection.Value)
		}
		return string(data)
	case FormatEmail:
		return detection.Email.Text
	default:
		return detection.Text
	}
}

func crmToMap(record *CRMRecord) map[string]any {
	data, err := json.Marshal(record)
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func (k documentKind) String() string {
	switch k {
	case docFile:
		return "file"
	case docString:
		return "string"
	case docValue:
		return "structured"
	default:
		return "unknown"
	}
}
