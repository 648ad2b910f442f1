package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Display shows a spinner for one running operation. On a non-terminal
// stream it prints nothing, so piped and scripted use stays quiet.
type Display struct {
	capabilities TerminalCapabilities
	symbols      ProgressSymbols
	w            io.Writer

	mu      sync.Mutex
	spinner *spinner.Spinner
	label   string
	started time.Time
}

// NewDisplay creates a display that writes to w with the given capabilities.
func NewDisplay(w io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		capabilities: caps,
		symbols:      SelectSymbols(caps),
		w:            w,
	}
}

// Start begins showing progress for label, e.g. "dbt run".
func (d *Display) Start(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.label = label
	d.started = time.Now()

	if !d.capabilities.IsTTY {
		return
	}
	d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, writerOption(d.w))
	d.spinner.Suffix = " " + buildMessage(label)
	d.spinner.Start()
}

// Finish stops the spinner and prints a completion or failure line.
func (d *Display) Finish(success bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.label == "" {
		return
	}
	d.stopLocked()
	if d.capabilities.IsTTY {
		mark := checkmark(d.symbols, d.capabilities.SupportsColor)
		if !success {
			mark = failureMark(d.symbols, d.capabilities.SupportsColor)
		}
		fmt.Fprintln(d.w, buildResultMessage(mark, d.label, success, time.Since(d.started)))
	}
	d.label = ""
}

// Stop stops the spinner without printing anything.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.label = ""
}

// writerOption lets the spinner check the real stream for a terminal when
// one is available.
func writerOption(w io.Writer) spinner.Option {
	if f, ok := w.(*os.File); ok {
		return spinner.WithWriterFile(f)
	}
	return spinner.WithWriter(w)
}

func (d *Display) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
