// Package apperrors defines sentinel errors shared across services and
// handlers, plus the Guidance error used to surface actionable LLM failures.
package apperrors

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// Guidance is an error that carries a user-facing remediation hint. It is
// returned by the generation endpoints, where LLM failures must surface to
// the caller with enough context to fix the environment (start Ollama, pull
// a model, add diary entries) rather than degrade silently.
type Guidance struct {
	Status  int    // HTTP status the handler should answer with
	Code    string // stable machine-readable code
	Message string
	Details string
	Fix     string
}

func (g *Guidance) Error() string {
	if g.Details != "" {
		return g.Message + ": " + g.Details
	}
	return g.Message
}

// AsGuidance unwraps err into a *Guidance if it is one.
func AsGuidance(err error) (*Guidance, bool) {
	var g *Guidance
	if errors.As(err, &g) {
		return g, true
	}
	return nil, false
}
