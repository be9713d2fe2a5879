package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNonInteractive is returned by prompters that cannot ask the operator.
var ErrNonInteractive = errors.New("input required but running non-interactively")

// Prompter asks the operator for values.
type Prompter interface {
	// Ask returns the answer, or def when the answer is blank.
	Ask(question, def string) (string, error)
	// AskSecret reads an answer without echoing it.
	AskSecret(question string) (string, error)
	// Confirm asks a yes/no question. Only yes, ye and y count as yes.
	Confirm(question string) (bool, error)
}

// NonInteractive fails every prompt with ErrNonInteractive.
type NonInteractive struct{}

func (NonInteractive) Ask(question, def string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrNonInteractive, question)
}

func (NonInteractive) AskSecret(question string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrNonInteractive, question)
}

func (NonInteractive) Confirm(question string) (bool, error) {
	return false, fmt.Errorf("%w: %s", ErrNonInteractive, question)
}

// TerminalPrompter reads answers line by line from in.
type TerminalPrompter struct {
	console *Console
	in      *bufio.Reader
	fd      int
	isTTY   bool
}

// NewTerminalPrompter prompts on c and reads from stdin.
func NewTerminalPrompter(c *Console) *TerminalPrompter {
	fd := int(os.Stdin.Fd())
	return &TerminalPrompter{
		console: c,
		in:      bufio.NewReader(os.Stdin),
		fd:      fd,
		isTTY:   term.IsTerminal(fd),
	}
}

// NewReaderPrompter prompts on c and reads from r. Secrets are read as
// plain lines.
func NewReaderPrompter(c *Console, r io.Reader) *TerminalPrompter {
	return &TerminalPrompter{console: c, in: bufio.NewReader(r), fd: -1}
}

// StdinIsTerminal reports whether prompts can be answered.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *TerminalPrompter) Ask(question, def string) (string, error) {
	p.console.Prompt(question)
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (p *TerminalPrompter) AskSecret(question string) (string, error) {
	p.console.Prompt(question)
	if !p.isTTY {
		return p.readLine()
	}
	secret, err := term.ReadPassword(p.fd)
	p.console.Line(LevelPlain, "")
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return string(secret), nil
}

func (p *TerminalPrompter) Confirm(question string) (bool, error) {
	p.console.Prompt(question)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	return IsYes(answer), nil
}

// IsYes reports whether answer is an affirmative reply.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "ye", "y":
		return true
	}
	return false
}
