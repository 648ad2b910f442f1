package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := map[string]struct {
		kind     Kind
		expected string
	}{
		"None":               {kind: None, expected: "None"},
		"InvalidOptions":     {kind: InvalidOptions, expected: "InvalidOptions"},
		"LaunchFailure":      {kind: LaunchFailure, expected: "LaunchFailure"},
		"Timeout":            {kind: Timeout, expected: "Timeout"},
		"Cancelled":          {kind: Cancelled, expected: "Cancelled"},
		"ExecutionFailure":   {kind: ExecutionFailure, expected: "ExecutionFailure"},
		"FormattingDegraded": {kind: FormattingDegraded, expected: "FormattingDegraded"},
		"Configuration":      {kind: Configuration, expected: "Configuration"},
		"Unknown":            {kind: Kind(99), expected: "Unknown"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := test.kind.String(); got != test.expected {
				t.Errorf("Expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		t.Parallel()
		err := New(InvalidOptions, "show", "models is required for %s", "show")
		if err.Error() != "models is required for show" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("message and cause", func(t *testing.T) {
		t.Parallel()
		err := Wrap(LaunchFailure, "run", fmt.Errorf("exec: not found"), "failed to start dbt")
		if err.Error() != "failed to start dbt: exec: not found" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("cause only", func(t *testing.T) {
		t.Parallel()
		err := &Error{Kind: Timeout, Err: fmt.Errorf("deadline")}
		if err.Error() != "deadline" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		if Wrap(Timeout, "run", nil, "ignored") != nil {
			t.Error("Expected nil for nil input")
		}
	})

	t.Run("unwraps to cause", func(t *testing.T) {
		t.Parallel()
		cause := fmt.Errorf("boom")
		err := Wrap(ExecutionFailure, "run", cause, "wrapped")
		if err.Unwrap() != cause {
			t.Error("Expected Unwrap to return the cause")
		}
	})
}

func TestKindOf(t *testing.T) {
	tests := map[string]struct {
		err  error
		want Kind
	}{
		"nil":          {err: nil, want: None},
		"classified":   {err: New(Timeout, "run", "slow"), want: Timeout},
		"wrapped":      {err: fmt.Errorf("outer: %w", New(Cancelled, "run", "stop")), want: Cancelled},
		"unclassified": {err: fmt.Errorf("plain"), want: ExecutionFailure},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	t.Parallel()
	if Is(nil, None) {
		t.Error("nil error should not match any kind")
	}
	if !Is(NewInvalidOptions("show", "bad"), InvalidOptions) {
		t.Error("expected InvalidOptions match")
	}
}

func TestFormatError(t *testing.T) {
	SetColorEnabled(false)

	t.Run("nil error returns empty string", func(t *testing.T) {
		if FormatError(nil) != "" {
			t.Error("Expected empty string")
		}
	})

	t.Run("classified error with remediation", func(t *testing.T) {
		err := NewInvalidOptions("show", "models is required", "pass --models <name>")
		out := FormatError(err)
		for _, want := range []string{"Invalid Options (show):", "models is required", "To fix this:", "pass --models <name>"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected output to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("plain error", func(t *testing.T) {
		out := FormatError(fmt.Errorf("plain failure"))
		if out != "Error: plain failure\n" {
			t.Errorf("unexpected output %q", out)
		}
	})
}
