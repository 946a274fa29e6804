package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/sweetpotato0/docflow/pkg/logging"
	"github.com/sweetpotato0/docflow/schema"
)

// schemaStage validates structured values against the schema registered for
// the classified intent. Intents without a schema pass through unchanged
// with a single anomaly; this is the expected behavior for un-schematized
// intents, not an error.
type schemaStage struct {
	schemas *schema.Registry
	logger  *slog.Logger
}

func newSchemaStage(cfg *Config) *schemaStage {
	return &schemaStage{
		schemas: cfg.schemas,
		logger:  logging.WithComponent("schema-extractor"),
	}
}

func (s *schemaStage) Extract(value any, intent string) (map[string]any, []string, string) {
	fields, ok := s.schemas.Lookup(intent)
	if !ok {
		anomaly := fmt.Sprintf("no target schema defined for intent '%s', data passed through", intent)
		return asObject(value), []string{anomaly}, StatusProcessedNoSchema
	}

	obj, isObject := value.(map[string]any)
	if !isObject {
		anomaly := fmt.Sprintf("structured value is not an object, cannot apply schema for intent '%s'", intent)
		return asObject(value), []string{anomaly}, StatusProcessedWithAnomalies
	}

	res := schema.Extract(obj, fields)
	status := StatusProcessed
	if len(res.Anomalies) > 0 {
		status = StatusProcessedWithAnomalies
		s.logger.Warn("extraction found anomalies", "intent", intent, "count", len(res.Anomalies))
	}
	return res.Extracted, res.Anomalies, status
}

// asObject shapes arbitrary structured values into the map form audit
// events carry.
func asObject(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": value}
}
