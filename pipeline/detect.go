package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sweetpotato0/docflow/decode"
	"github.com/sweetpotato0/docflow/pkg/logging"
)

// Decode collaborators. The detector only depends on these contracts so
// tests can substitute fixtures for real binary decoding.
type pdfDecoder interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type emlDecoder interface {
	Decode(path string) (string, map[string]string, error)
}

type htmlDecoder interface {
	ExtractText(path string) (string, error)
}

var (
	fromHeaderRe    = regexp.MustCompile(`(?im)^\s*from\s*:`)
	subjectHeaderRe = regexp.MustCompile(`(?im)^\s*subject\s*:`)
)

// headerScanLines bounds the naive header scan on heuristic emails.
const headerScanLines = 15

// detector determines document format and produces normalized content for
// classification. Dispatch is strictly on extension for files; raw strings
// are tried as structured values first, then run through the email
// heuristic.
type detector struct {
	pdf    pdfDecoder
	eml    emlDecoder
	html   htmlDecoder
	logger *slog.Logger
}

func newDetector() *detector {
	return &detector{
		pdf:    decode.PDF{},
		eml:    decode.EML{},
		html:   decode.HTML{},
		logger: logging.WithComponent("detector"),
	}
}

func (d *detector) Detect(ctx context.Context, doc *Document) (*Detection, error) {
	switch doc.kind {
	case docFile:
		return d.detectFile(ctx, doc)
	case docString:
		return d.detectString(doc.raw), nil
	case docValue:
		return &Detection{Format: FormatStructured, Value: doc.value}, nil
	default:
		return nil, &FormatError{
			Source: doc.SourceID,
			Reason: fmt.Sprintf("unsupported input kind %d", doc.kind),
		}
	}
}

func (d *detector) detectFile(ctx context.Context, doc *Document) (*Detection, error) {
	path := doc.path
	if _, err := os.Stat(path); err != nil {
		return nil, &FormatError{Source: path, Reason: fmt.Sprintf("cannot access file: %v", err)}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &FormatError{Source: path, Reason: fmt.Sprintf("cannot read file: %v", err)}
		}
		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, &FormatError{
				Source: path,
				Reason: fmt.Sprintf("invalid JSON content in file %s: %v", path, err),
			}
		}
		return &Detection{Format: FormatStructured, Value: value}, nil

	case ".pdf":
		text, err := d.pdf.ExtractText(ctx, path)
		if err != nil {
			return nil, &FormatError{Source: path, Reason: fmt.Sprintf("cannot extract PDF text: %v", err)}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			// Image-based or scanned documents yield no text; still a
			// valid format, classification will short-circuit.
			d.logger.Warn("PDF yielded no text content", "path", path)
		}
		return &Detection{Format: FormatPDF, Text: text}, nil

	case ".eml":
		body, headers, err := d.eml.Decode(path)
		if err != nil {
			return nil, &FormatError{Source: path, Reason: fmt.Sprintf("cannot parse EML: %v", err)}
		}
		if strings.TrimSpace(body) == "" {
			d.logger.Warn("EML yielded no plain text body", "path", path)
		}
		return &Detection{
			Format: FormatEmail,
			Email:  &EmailContent{Text: body, Headers: headers, Origin: path},
		}, nil

	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &FormatError{Source: path, Reason: fmt.Sprintf("cannot read file: %v", err)}
		}
		return d.classifyText(string(data)), nil

	case ".html", ".htm":
		text, err := d.html.ExtractText(path)
		if err != nil {
			return nil, &FormatError{Source: path, Reason: fmt.Sprintf("cannot extract HTML text: %v", err)}
		}
		return &Detection{Format: FormatText, Text: text}, nil

	default:
		return nil, &FormatError{
			Source: path,
			Reason: fmt.Sprintf("unsupported file extension %q", ext),
		}
	}
}

func (d *detector) detectString(raw string) *Detection {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err == nil {
		return &Detection{Format: FormatStructured, Value: value}
	}
	return d.classifyText(raw)
}

// classifyText applies the email heuristic: text with both From: and
// Subject: style headers on separate lines is treated as an email, with a
// header map synthesized from the colon-separated leading lines.
func (d *detector) classifyText(text string) *Detection {
	if fromHeaderRe.MatchString(text) && subjectHeaderRe.MatchString(text) {
		return &Detection{
			Format: FormatEmail,
			Email:  &EmailContent{Text: text, Headers: headersFromText(text)},
		}
	}
	return &Detection{Format: FormatText, Text: text}
}

func headersFromText(text string) map[string]string {
	headers := make(map[string]string)
	for i, line := range strings.Split(text, "\n") {
		if i >= headerScanLines {
			break
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return headers
}
