package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
)

func termWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// PrintBanner writes the startup banner to w, centered when w is a terminal.
// Colors are only used on terminals so redirected output stays plain.
func PrintBanner(w io.Writer, subtitle string) {
	banner := `
   _____  ___   _ _____ _  _ ___ _____ ___ ___ ___
  / __\ \/ / \| |_   _| || | __|_   _|_ _/ __/ __|
  \__ \\  /| .' | | | | __ | _|  | |  | | (__\__ \
  |___/ |_| |_|\_| |_| |_||_|___| |_| |___\___|___/
`
	width, color, reset := 0, "", ""
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width = termWidth(f)
		color, reset = colorNeonCyan, colorReset
	}

	lines := strings.Split(banner, "\n")
	if subtitle != "" {
		lines = append(lines, ">> "+subtitle+" <<", "")
	}
	for _, l := range lines {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", padding), color, l, reset)
	}
}
