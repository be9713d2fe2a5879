package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

var theme = progressbar.Theme{
	Saucer:        "[green]=[reset]",
	SaucerHead:    "[green]>[reset]",
	SaucerPadding: " ",
	BarStart:      "[",
	BarEnd:        "]",
}

// Reporter receives progress while a setup is being enumerated.
type Reporter interface {
	Start(total int, desc string)
	Step(desc string)
	Finish()
}

// Nop discards all progress.
type Nop struct{}

func (Nop) Start(int, string) {}
func (Nop) Step(string)       {}
func (Nop) Finish()           {}

// StepProgressBar returns a counting bar for total discrete steps.
func StepProgressBar(w io.Writer, desc string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(theme),
	)
}

// Bar reports progress on an ANSI terminal bar.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBar returns a Reporter drawing to stdout.
func NewBar() *Bar {
	return &Bar{w: ansi.NewAnsiStdout()}
}

// NewBarWriter returns a Reporter drawing to w.
func NewBarWriter(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) Start(total int, desc string) {
	b.bar = StepProgressBar(b.w, desc, total)
}

func (b *Bar) Step(desc string) {
	if b.bar == nil {
		return
	}
	b.bar.Describe(desc)
	_ = b.bar.Add(1)
}

func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}
