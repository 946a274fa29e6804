package pipeline

import "testing"

func TestRouteDecisionTable(t *testing.T) {
	r := newRouter(defaultConfig())

	tests := []struct {
		name   string
		format Format
		intent string
		want   Target
	}{
		{"structured always goes to schema", FormatStructured, "RFQ", TargetSchema},
		{"structured with unknown intent still schema", FormatStructured, IntentOther, TargetSchema},
		{"email always goes to email extractor", FormatEmail, "Regulation", TargetEmail},
		{"text with email-like intent", FormatText, "Complaint", TargetEmail},
		{"text with ambiguous intent", FormatText, IntentOther, TargetEmail},
		{"text with non-email-like intent", FormatText, "Regulation", NoRoute},
		{"pdf text with email-like intent", FormatPDF, "Invoice", TargetEmail},
		{"pdf text with non-email-like intent", FormatPDF, "Regulation", NoRoute},
		{"unknown format", FormatUnknown, "RFQ", NoRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Route(tt.format, tt.intent); got != tt.want {
				t.Errorf("Route(%s, %s) = %v, want %v", tt.format, tt.intent, got, tt.want)
			}
		})
	}
}

func TestRouteRespectsConfiguredEmailLikeSet(t *testing.T) {
	cfg := defaultConfig()
	cfg.EmailLikeIntents = []string{"Regulation"}
	r := newRouter(cfg)

	if got := r.Route(FormatText, "Regulation"); got != TargetEmail {
		t.Errorf("configured email-like intent should route to email extractor, got %v", got)
	}
	if got := r.Route(FormatText, "Complaint"); got != NoRoute {
		t.Errorf("intent outside the configured set should not route, got %v", got)
	}
}
