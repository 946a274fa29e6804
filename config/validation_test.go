package config

import (
	"strings"
	"testing"
)

func TestValidatorPassesCleanConfig(t *testing.T) {
	v := NewValidator().
		RequireNonEmpty("model", "gpt-4o-mini").
		RequirePositive("max_prompt_chars", 3500).
		RequireNonEmptyList("supported_intents", []string{"RFQ", "Other"}).
		RequireSubset("email_like_intents", []string{"RFQ"}, []string{"RFQ", "Other"})

	if v.HasErrors() {
		t.Fatalf("expected no errors, got %v", v.Errors())
	}
	if err := v.Error(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	v := NewValidator().
		RequireNonEmpty("model", "  ").
		RequirePositive("max_prompt_chars", 0).
		RequireNonEmptyList("supported_intents", nil).
		RequireSubset("email_like_intents", []string{"Spam"}, []string{"RFQ"})

	if got := len(v.Errors()); got != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", got, v.Errors())
	}

	err := v.Error()
	if err == nil {
		t.Fatal("expected combined error")
	}
	for _, field := range []string{"model", "max_prompt_chars", "supported_intents", "email_like_intents"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("combined error missing field %q: %v", field, err)
		}
	}
}

func TestValidateOneOf(t *testing.T) {
	if NewValidator().ValidateOneOf("urgency", "Medium", "Low", "Medium", "High").HasErrors() {
		t.Fatal("expected Medium to be accepted")
	}
	if !NewValidator().ValidateOneOf("urgency", "Critical", "Low", "Medium", "High").HasErrors() {
		t.Fatal("expected Critical to be rejected")
	}
}
