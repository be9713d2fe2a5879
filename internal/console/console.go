// Package console renders operator-facing output and prompts.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/k0kubun/go-ansi"
	"github.com/mitchellh/colorstring"
	"golang.org/x/term"
)

// Level selects the color of a message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelFail
	LevelInput
	LevelPlain
)

var levelColors = map[Level]string{
	LevelInfo:  "[green]",
	LevelWarn:  "[yellow]",
	LevelFail:  "[red]",
	LevelInput: "[green]",
}

// Formatter wraps text in ANSI color codes. It holds no global state; a
// zero Formatter emits plain text.
type Formatter struct {
	Color bool
}

func (f Formatter) code(markup string) string {
	c := colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !f.Color,
	}
	return c.Color(markup)
}

// Format renders msg at level. The message itself is never parsed for
// color markup, so text such as "TASK [setup]" is emitted as-is.
func (f Formatter) Format(level Level, msg string) string {
	markup, ok := levelColors[level]
	if !ok || !f.Color {
		return msg
	}
	return f.code(markup) + msg + f.code("[reset]")
}

// Console writes prefixed, colored lines. Writes are serialized so output
// from concurrent producers never interleaves within a line.
type Console struct {
	mu     *sync.Mutex
	out    io.Writer
	format Formatter
	prefix string
}

// New returns a Console writing to out.
func New(out io.Writer, color bool) *Console {
	return &Console{mu: &sync.Mutex{}, out: out, format: Formatter{Color: color}}
}

// Stdout returns a Console on the ANSI-capable stdout. Color is enabled
// only when stdout is a terminal and noColor is false.
func Stdout(noColor bool) *Console {
	color := !noColor && term.IsTerminal(int(os.Stdout.Fd()))
	return New(ansi.NewAnsiStdout(), color)
}

// WithPrefix returns a Console sharing the same writer and lock that
// prefixes every message with "[prefix] ".
func (c *Console) WithPrefix(prefix string) *Console {
	return &Console{mu: c.mu, out: c.out, format: c.format, prefix: "[" + prefix + "] "}
}

// Formatter returns the formatter in use.
func (c *Console) Formatter() Formatter {
	return c.format
}

// Print writes one message at level.
func (c *Console) Print(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if level != LevelPlain {
		msg = c.prefix + msg
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.format.Format(level, msg))
}

func (c *Console) Info(format string, args ...interface{}) {
	c.Print(LevelInfo, format, args...)
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.Print(LevelWarn, format, args...)
}

func (c *Console) Fail(format string, args ...interface{}) {
	c.Print(LevelFail, format, args...)
}

// Line writes text verbatim, colored at level but without prefix.
func (c *Console) Line(level Level, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.format.Format(level, text))
}

// Prompt writes a question without a trailing newline.
func (c *Console) Prompt(question string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.format.Format(LevelInput, c.prefix+question))
}
