package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// FormatError renders err for terminal output. Classified errors get a
// heading and remediation list; plain errors are printed as-is.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return fmt.Sprintf("%s %s\n", color.RedString("Error:"), err.Error())
	}

	var b strings.Builder
	heading := e.Kind.Title()
	if e.Op != "" {
		heading = fmt.Sprintf("%s (%s)", heading, e.Op)
	}
	fmt.Fprintf(&b, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint(heading+":"), e.Error())

	if len(e.Remediation) > 0 {
		fmt.Fprintf(&b, "\n%s\n", color.YellowString("To fix this:"))
		for _, step := range e.Remediation {
			fmt.Fprintf(&b, "  - %s\n", step)
		}
	}
	return b.String()
}

// PrintError writes the formatted error to w.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}

// SetColorEnabled toggles colored output for FormatError.
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}
