package sshserver

import (
	"strings"

	"github.com/muesli/termenv"
)

// colorProfile maps a client TERM value to a color profile.
func colorProfile(term string) termenv.Profile {
	term = strings.ToLower(strings.TrimSpace(term))
	switch {
	case term == "" || term == "dumb":
		return termenv.Ascii
	case strings.Contains(term, "truecolor") || strings.Contains(term, "24bit") || strings.Contains(term, "direct"):
		return termenv.TrueColor
	case strings.Contains(term, "256color"):
		return termenv.ANSI256
	case term == "linux" || term == "vt100" || term == "xterm" || term == "screen":
		return termenv.ANSI
	default:
		return termenv.ANSI256
	}
}
