package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the intentflow ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` _       _             _    __ _`, "#818cf8"},
		{`(_)_ __ | |_ ___ _ __ | |_ / _| | _____      __`, "#a78bfa"},
		{`| | '_ \| __/ _ \ '_ \| __| |_| |/ _ \ \ /\ / /`, "#c084fc"},
		{`| | | | | ||  __/ | | | |_|  _| | (_) \ V  V /`, "#e879f9"},
		{`|_|_| |_|\__\___|_| |_|\__|_| |_|\___/ \_/\_/`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
