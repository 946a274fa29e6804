// Package llm defines the contract for the remote text completion
// collaborator and the normalization layer that turns its free-text
// output back into structured data.
package llm

import "context"

// Request bundles inputs for a single-shot completion call.
type Request struct {
	System string // system message framing the task
	Prompt string // user prompt
	Model  string // model identifier; empty means the provider default
}

// Client is implemented by completion providers (see contrib/provider).
// A non-nil error is a call failure: the collaborator was unreachable or
// errored at the transport level and no text was produced. Callers must
// not attempt to parse anything after a call failure.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)
}
