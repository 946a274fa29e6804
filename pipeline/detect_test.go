package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDetectStructuredFile(t *testing.T) {
	path := writeTempFile(t, "rfq.json", `{"rfq_id": "R1", "customer_name": "Acme"}`)

	det, err := newDetector().Detect(context.Background(), FromFile(path))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatStructured {
		t.Fatalf("format = %q", det.Format)
	}
	value, ok := det.Value.(map[string]any)
	if !ok || value["rfq_id"] != "R1" {
		t.Fatalf("value = %v", det.Value)
	}
}

func TestDetectMalformedStructuredFileNamesPath(t *testing.T) {
	path := writeTempFile(t, "broken.json", `{"rfq_id": `)

	_, err := newDetector().Detect(context.Background(), FromFile(path))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file path, got %q", err)
	}
}

func TestDetectTextFileWithEmailHeuristic(t *testing.T) {
	raw := "From: alice@example.com\nTo: sales@example.com\nSubject: Question about pricing\n\nHow much is the enterprise plan?"
	path := writeTempFile(t, "inquiry.txt", raw)

	det, err := newDetector().Detect(context.Background(), FromFile(path))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatEmail {
		t.Fatalf("format = %q, want Email", det.Format)
	}
	if det.Email.Headers["From"] != "alice@example.com" {
		t.Errorf("synthesized headers = %v", det.Email.Headers)
	}
	if det.Email.Headers["Subject"] != "Question about pricing" {
		t.Errorf("synthesized headers = %v", det.Email.Headers)
	}
	if det.Email.Text != raw {
		t.Errorf("email text should be the full raw text")
	}
}

func TestDetectPlainTextFile(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "Meeting notes without any mail headers in them.")

	det, err := newDetector().Detect(context.Background(), FromFile(path))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatText {
		t.Fatalf("format = %q, want Text", det.Format)
	}
	if det.Email != nil {
		t.Error("plain text must not carry email content")
	}
}

func TestDetectSubjectOnlyIsNotEmail(t *testing.T) {
	path := writeTempFile(t, "memo.txt", "Subject: weekly report\n\nNumbers are up.")

	det, err := newDetector().Detect(context.Background(), FromFile(path))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	// Both From: and Subject: are required before text counts as email.
	if det.Format != FormatText {
		t.Fatalf("format = %q, want Text", det.Format)
	}
}

func TestDetectEMLFile(t *testing.T) {
	raw := "From: bob@example.com\r\nSubject: RFQ\r\n\r\nPlease quote 100 units.\r\n"
	path := writeTempFile(t, "rfq.eml", raw)

	det, err := newDetector().Detect(context.Background(), FromFile(path))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatEmail {
		t.Fatalf("format = %q", det.Format)
	}
	if det.Email.Text != "Please quote 100 units." {
		t.Errorf("body = %q", det.Email.Text)
	}
	if det.Email.Origin != path {
		t.Errorf("origin = %q, want source path", det.Email.Origin)
	}
}

func TestDetectUnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "data.xlsx", "not really a spreadsheet")

	_, err := newDetector().Detect(context.Background(), FromFile(path))
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if !strings.Contains(err.Error(), ".xlsx") {
		t.Errorf("error should name the extension, got %q", err)
	}
}

func TestDetectMissingFile(t *testing.T) {
	_, err := newDetector().Detect(context.Background(), FromFile("/does/not/exist.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDetectRawStringAsStructured(t *testing.T) {
	det, err := newDetector().Detect(context.Background(), FromString(`{"order_id": "ORD987", "status": "Pending"}`))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatStructured {
		t.Fatalf("format = %q", det.Format)
	}
}

func TestDetectRawStringEmailHeuristic(t *testing.T) {
	det, err := newDetector().Detect(context.Background(), FromString("From: x@y.com\nSubject: hello\n\nbody"))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatEmail {
		t.Fatalf("format = %q", det.Format)
	}
}

func TestDetectValuePassesThrough(t *testing.T) {
	value := map[string]any{"a": float64(1)}
	det, err := newDetector().Detect(context.Background(), FromValue(value))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatStructured {
		t.Fatalf("format = %q", det.Format)
	}
	if got, ok := det.Value.(map[string]any); !ok || got["a"] != float64(1) {
		t.Fatalf("value = %v", det.Value)
	}
}

func TestDetectHTMLFileAsText(t *testing.T) {
	path := writeTempFile(t, "invoice.html",
		`<html><body><h1>Invoice INV-42</h1><p>Total due: $100</p></body></html>`)

	det, err := newDetector().Detect(context.Background(), FromFile(path))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if det.Format != FormatText {
		t.Fatalf("format = %q", det.Format)
	}
	if !strings.Contains(det.Text, "Invoice INV-42") {
		t.Errorf("text = %q", det.Text)
	}
}
