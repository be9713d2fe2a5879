package cutover

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Command is a process to run.
type Command struct {
	Name string
	Args []string
	// Env entries are appended to the current environment.
	Env []string
}

// String renders the command line for logs. Environment values are never
// included.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Runner executes a command, feeding every output line to sink.
type Runner interface {
	Run(ctx context.Context, cmd Command, sink Sink) error
}

// Sink receives output lines. Implementations must be safe for concurrent
// use by one stdout and one stderr producer.
type Sink interface {
	Line(stream StreamKind, line string)
}

// StreamKind tells stdout from stderr.
type StreamKind int

const (
	Stdout StreamKind = iota
	Stderr
)

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cmd Command, sink Sink) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Env = append(os.Environ(), cmd.Env...)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	log.WithField("command", cmd.String()).Debug("Running command")
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Name, err)
	}

	// Both pipes must be drained before Wait closes them.
	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, stdout, Stdout, sink)
	go drain(&wg, stderr, Stderr, sink)
	wg.Wait()

	if err := c.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return err
	}
	return nil
}

func drain(wg *sync.WaitGroup, r io.Reader, kind StreamKind, sink Sink) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		sink.Line(kind, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.WithError(err).Warn("Error reading command output")
		// keep the pipe flowing so the child never blocks on a full buffer
		_, _ = io.Copy(io.Discard, r)
	}
}
