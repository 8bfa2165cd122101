package ui

import (
	"os"
	"sync"

	"golang.org/x/term"
)

var (
	ttyOnce sync.Once
	ttyOK   bool
)

// Interactive reports whether stdout is a terminal. Piped or redirected
// output drops styling and the banner.
func Interactive() bool {
	ttyOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" {
			return
		}
		ttyOK = term.IsTerminal(int(os.Stdout.Fd()))
	})
	return ttyOK
}

// Width returns the terminal width, or 80 when it cannot be determined.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
