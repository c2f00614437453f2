// Package engine wraps the external OCR/vision engine behind a typed Gateway.
// The engine is an opaque CLI (`<binary> run <model> <prompt>`); everything
// about model loading and accuracy is its problem, not ours.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// GroundingMarker is the reserved prefix that tells the engine to produce
// layout-aware, structured output instead of free-form description.
const GroundingMarker = "<|grounding|>"

// describePrefix marks free-form description intents that must stay
// ungrounded (case-insensitive prefix match).
const describePrefix = "describe this image"

var (
	// ErrUnavailable means the engine binary is not installed or not on PATH.
	ErrUnavailable = errors.New("engine not available")
	// ErrTimeout means the engine exceeded the invocation deadline and was
	// terminated.
	ErrTimeout = errors.New("engine invocation timed out")
)

// EngineError is a non-zero engine exit; Stderr carries the engine's
// diagnostic stream.
type EngineError struct {
	ExitCode int
	Stderr   string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// InvocationError covers invocation failures that are neither a missing
// binary, a timeout, nor an engine exit.
type InvocationError struct {
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("engine invocation failed: %v", e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Gateway invokes the external engine with a stored artifact and an intent.
// No implementation retries; retry policy belongs to the caller.
type Gateway interface {
	Invoke(ctx context.Context, model, imagePath, intent string) (string, error)
}

// BuildPrompt constructs the engine prompt: the artifact path on the first
// line, the instruction on the second. Document-style intents get the
// grounding marker prefixed unless they already carry it; "describe this
// image…" intents stay ungrounded.
func BuildPrompt(imagePath, intent string) string {
	switch {
	case strings.HasPrefix(strings.ToLower(intent), describePrefix):
		return imagePath + "\n" + intent
	case strings.HasPrefix(intent, GroundingMarker):
		return imagePath + "\n" + intent
	default:
		return imagePath + "\n" + GroundingMarker + intent
	}
}
