package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// newCommand is a seam for tests; production code always builds a real
// exec.Cmd bound to the invocation context.
var newCommand = func(ctx context.Context, bin string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, bin, args...)
}

// OllamaGateway runs the engine through the ollama CLI:
// `ollama run <model> <prompt>`. The prompt embeds the image path on its
// first line (see BuildPrompt). It holds no locks: concurrent invocations are
// the engine's contention to manage.
type OllamaGateway struct {
	binary  string
	timeout time.Duration
}

// NewOllamaGateway builds a gateway for the given binary with a wall-clock
// invocation timeout.
func NewOllamaGateway(binary string, timeout time.Duration) *OllamaGateway {
	if binary == "" {
		binary = "ollama"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaGateway{binary: binary, timeout: timeout}
}

var _ Gateway = (*OllamaGateway)(nil)

// Invoke runs the engine once and returns its trimmed stdout. The subprocess
// is killed when the deadline expires. Failures map onto the four error
// kinds: ErrUnavailable, ErrTimeout, *EngineError, *InvocationError.
func (g *OllamaGateway) Invoke(ctx context.Context, model, imagePath, intent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := BuildPrompt(imagePath, intent)
	cmd := newCommand(ctx, g.binary, "run", model, prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", classify(ctx, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// classify maps a subprocess failure to the gateway's error taxonomy. The
// context is consulted first: a killed process after deadline expiry reports
// as an exit error, but the timeout is the real cause.
func classify(ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ErrUnavailable
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &EngineError{ExitCode: exitErr.ExitCode(), Stderr: stderr}
	}
	return &InvocationError{Err: err}
}
