package progress

import (
	"fmt"
	"time"
)

// buildMessage returns the spinner suffix for label.
func buildMessage(label string) string {
	return fmt.Sprintf("Running %s", label)
}

// buildResultMessage returns the line printed when the operation ends.
func buildResultMessage(mark, label string, success bool, elapsed time.Duration) string {
	status := "completed"
	if !success {
		status = "failed"
	}
	return fmt.Sprintf("%s %s %s (%s)", mark, label, status, formatElapsed(elapsed))
}

// formatElapsed rounds to a tenth of a second, or milliseconds below one second.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// checkmark returns the appropriate checkmark symbol
func checkmark(symbols ProgressSymbols, supportsColor bool) string {
	mark := symbols.Checkmark
	if supportsColor && symbols.Checkmark == "✓" {
		mark = "\033[32m" + mark + "\033[0m" // Green
	}
	return mark
}

// failureMark returns the appropriate failure symbol
func failureMark(symbols ProgressSymbols, supportsColor bool) string {
	mark := symbols.Failure
	if supportsColor && symbols.Failure == "✗" {
		mark = "\033[31m" + mark + "\033[0m" // Red
	}
	return mark
}
