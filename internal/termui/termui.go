// Package termui provides terminal-detection helpers for the CLI's table
// output, adapted from the teacher's internal/ui terminal helpers.
package termui

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether stdout is connected to a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor mirrors the NO_COLOR / CLICOLOR conventions.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return IsTerminal()
}

// Width returns the current terminal width, or a sane default when stdout
// isn't a TTY (piped output, redirected to a file, CI logs).
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
