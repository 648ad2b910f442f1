package progress

import (
	"os"

	"golang.org/x/term"
)

// DetectTerminalCapabilities detects the features of f, normally os.Stderr.
func DetectTerminalCapabilities(f *os.File) TerminalCapabilities {
	fd := int(f.Fd())
	isTTY := term.IsTerminal(fd)

	// Check environment variables
	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("DBT_MCP_ASCII") == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SelectSymbols returns the appropriate symbol set based on terminal capabilities
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return ProgressSymbols{
			Checkmark:  "✓",
			Failure:    "✗",
			SpinnerSet: 14, // Unicode dots: ⠋ ⠙ ⠹ ⠸ ⠼ ⠴ ⠦ ⠧ ⠇ ⠏
		}
	}

	return ProgressSymbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		SpinnerSet: 9, // ASCII: | / - \
	}
}
