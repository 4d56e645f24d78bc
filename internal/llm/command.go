package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
)

// CommandGenerator shells out to `<Command> run <model>` with the prompt on stdin.
type CommandGenerator struct {
	Command string
	Timeout time.Duration
}

func NewCommandGenerator(command string, timeout time.Duration) *CommandGenerator {
	if strings.TrimSpace(command) == "" {
		command = "ollama"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CommandGenerator{Command: command, Timeout: timeout}
}

func (g *CommandGenerator) Generate(ctx context.Context, model Model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.Command, "run", model.String())
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &appErrors.ErrGenerationTimeout{Model: model.String(), Timeout: g.Timeout}
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return "", &appErrors.ErrGenerationError{Model: model.String(), Err: err}
	}
	return cleanOutput(stdout.String()), nil
}

var _ Generator = (*CommandGenerator)(nil)
