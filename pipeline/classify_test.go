package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestClassifier(client *stubClient) *classifier {
	return newClassifier(client, defaultConfig())
}

func TestClassifyShortInputSkipsRemoteCall(t *testing.T) {
	client := &stubClient{}
	c := newTestClassifier(client)

	got := c.Classify(context.Background(), "hi")
	if got.Intent != IntentOther || got.Reasoning != "content too short" {
		t.Fatalf("classification = %+v", got)
	}
	if client.callCount() != 0 {
		t.Errorf("remote calls = %d, want 0", client.callCount())
	}

	// Whitespace padding does not rescue short content.
	got = c.Classify(context.Background(), "   hi    \n\n")
	if got.Reasoning != "content too short" {
		t.Errorf("classification = %+v", got)
	}
}

func TestClassifyWellFormedResponse(t *testing.T) {
	client := &stubClient{
		responses: []string{`{"intent": "Complaint", "reasoning": "The sender is unhappy with a delivery."}`},
	}
	c := newTestClassifier(client)

	got := c.Classify(context.Background(), "The package arrived two weeks late and the box was crushed.")
	if got.Intent != "Complaint" {
		t.Fatalf("intent = %q", got.Intent)
	}
}

func TestClassifyDecoratedResponseIsRecovered(t *testing.T) {
	client := &stubClient{
		responses: []string{"Sure! Here is the classification:\n```json\n{\"intent\": \"RFQ\", \"reasoning\": \"Asks for a quote.\"}\n```"},
	}
	c := newTestClassifier(client)

	got := c.Classify(context.Background(), "Please quote 100 units of PROD001 delivered by June.")
	if got.Intent != "RFQ" {
		t.Fatalf("intent = %q, want RFQ despite fencing", got.Intent)
	}
}

func TestClassifyCallFailureDegrades(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	c := newTestClassifier(client)

	got := c.Classify(context.Background(), "A perfectly classifiable document about invoices.")
	if got.Intent != IntentOther || got.Reasoning != "classification failed or malformed" {
		t.Fatalf("classification = %+v", got)
	}
}

func TestClassifyUnparseableResponseDegrades(t *testing.T) {
	client := &stubClient{responses: []string{"I think this is probably an invoice?"}}
	c := newTestClassifier(client)

	got := c.Classify(context.Background(), "A perfectly classifiable document about invoices.")
	if got.Intent != IntentOther || got.Reasoning != "classification failed or malformed" {
		t.Fatalf("classification = %+v", got)
	}
}

func TestClassifyCoercesUnsupportedIntent(t *testing.T) {
	client := &stubClient{
		responses: []string{`{"intent": "Parking Ticket", "reasoning": "Mentions a fine for parking."}`},
	}
	c := newTestClassifier(client)

	got := c.Classify(context.Background(), "You are hereby fined 50 dollars for parking in a restricted zone.")
	if got.Intent != IntentOther {
		t.Fatalf("intent = %q, want Other", got.Intent)
	}
	// The model's original words survive the coercion.
	if !strings.Contains(got.Reasoning, "Mentions a fine for parking.") {
		t.Errorf("reasoning lost original rationale: %q", got.Reasoning)
	}
	if !strings.Contains(got.Reasoning, "Parking Ticket") {
		t.Errorf("reasoning should note the coerced intent: %q", got.Reasoning)
	}
}

func TestClassifyTruncatesLongInput(t *testing.T) {
	client := &stubClient{
		responses: []string{`{"intent": "Feedback", "reasoning": "Customer praise."}`},
	}
	c := newTestClassifier(client)

	long := strings.Repeat("great product ", 1000)
	c.Classify(context.Background(), long)

	if len(client.prompts) != 1 {
		t.Fatalf("prompts recorded = %d", len(client.prompts))
	}
	if strings.Contains(client.prompts[0], long) {
		t.Error("prompt should carry a truncated prefix, not the full text")
	}
}
