package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError reports that the collaborator returned text which could not be
// decoded as JSON after every recovery strategy. It keeps both the original
// text and the final candidate for diagnostics.
type ParseError struct {
	Raw       string // untouched collaborator output
	Candidate string // text that was last handed to the JSON decoder
	Err       error  // underlying decode error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize response: %v", e.Err)
	}
	return "normalize response: no JSON value found"
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	fencedJSONRe    = regexp.MustCompile("(?s)```[jJ][sS][oO][nN]\\s*(.*?)\\s*```")
	fencedGenericRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// Normalize recovers a JSON document from arbitrarily decorated model output
// and returns its text. Strategies are tried in order, first success wins:
//
//  1. a fenced block tagged as JSON
//  2. any generic fenced block
//  3. the trailing substring starting at the last '{' or '[' (whichever is
//     later), provided the preceding character is not alphanumeric
//  4. the candidate as-is; when a complete value is followed by trailing
//     prose, only the first value is kept
//
// On failure the returned error is a *ParseError carrying the raw text and
// the final candidate.
func Normalize(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)

	if m := fencedJSONRe.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
	} else if m := fencedGenericRe.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
	} else if start := lastValueStart(candidate); start >= 0 {
		if tail := candidate[start:]; json.Valid([]byte(tail)) {
			candidate = tail
		}
	}

	if candidate == "" {
		return "", &ParseError{Raw: raw, Candidate: candidate}
	}

	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	// The candidate may be a complete value with trailing commentary after
	// it. Decode just the first value and discard the remainder.
	if strings.HasPrefix(candidate, "{") || strings.HasPrefix(candidate, "[") {
		dec := json.NewDecoder(strings.NewReader(candidate))
		var first any
		if err := dec.Decode(&first); err == nil {
			return strings.TrimSpace(candidate[:dec.InputOffset()]), nil
		}
	}

	err := json.Unmarshal([]byte(candidate), &struct{}{})
	return "", &ParseError{Raw: raw, Candidate: candidate, Err: err}
}

// Decode normalizes raw model output and unmarshals the recovered JSON
// into T. Failures are always *ParseError.
func Decode[T any](raw string) (*T, error) {
	clean, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, &ParseError{Raw: raw, Candidate: clean, Err: err}
	}
	return &out, nil
}

// lastValueStart locates the later of the last '{' and last '[', rejecting
// brace-like tokens embedded in words, and returns -1 when neither is a
// plausible value start.
func lastValueStart(s string) int {
	idx := strings.LastIndexByte(s, '{')
	if b := strings.LastIndexByte(s, '['); b > idx {
		idx = b
	}
	if idx <= 0 {
		return idx
	}
	if isAlnum(s[idx-1]) {
		return -1
	}
	return idx
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
