package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Command describes one external process invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin []byte
	Env   []string // appended to the current environment
	Dir   string
}

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, cmd Command) (stdout, stderr []byte, err error)
}

// Exec runs commands with os/exec.
type Exec struct{}

func (Exec) Run(ctx context.Context, c Command) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		slog.Error("exec.fail",
			"cmd", c.Name,
			"args", strings.Join(c.Args, " "),
			"duration_ms", dur.Milliseconds(),
			"err", err,
			"stderr", Truncate(errb.String(), 8<<10),
		)
	} else {
		slog.Debug("exec.ok",
			"cmd", c.Name,
			"args", strings.Join(c.Args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

// IsMissingBinary reports whether err means the executable was not found.
func IsMissingBinary(err error) bool {
	var pe *os.PathError
	return errors.Is(err, exec.ErrNotFound) || (errors.As(err, &pe) && errors.Is(pe.Err, os.ErrNotExist))
}

// Truncate caps s at max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
