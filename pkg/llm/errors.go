package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnreachable indicates the Ollama server could not be reached.
var ErrUnreachable = errors.New("ollama unreachable")

// ErrModelNotFound indicates the requested model is not available locally.
var ErrModelNotFound = errors.New("model not found")

// classifyError maps raw API errors onto the package sentinels so callers
// can branch with errors.Is. The Ollama client does not expose typed errors,
// so this matches on message patterns.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "no such host"):
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	case strings.Contains(errStr, "model") && strings.Contains(errStr, "not found"):
		return fmt.Errorf("%w: %v", ErrModelNotFound, err)
	default:
		return err
	}
}
