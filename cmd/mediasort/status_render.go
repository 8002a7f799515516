package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"mediasort/internal/journal"
)

type severity int

const (
	sevInfo severity = iota
	sevOK
	sevWarn
	sevError
)

var severityStyles = map[severity]struct {
	tag    string
	colors text.Colors
}{
	sevInfo:  {"INFO", text.Colors{text.FgBlue}},
	sevOK:    {"OK", text.Colors{text.FgGreen}},
	sevWarn:  {"WARN", text.Colors{text.FgYellow}},
	sevError: {"ERROR", text.Colors{text.FgRed, text.Bold}},
}

// statusPrinter writes "label:    [TAG] message" lines, colored when the
// destination is a terminal.
type statusPrinter struct {
	out   io.Writer
	color bool
}

func newStatusPrinter(out io.Writer) statusPrinter {
	return statusPrinter{out: out, color: isTerminal(out)}
}

func (p statusPrinter) line(label string, sev severity, message string) {
	fmt.Fprintln(p.out, p.format(label, sev, message))
}

func (p statusPrinter) format(label string, sev severity, message string) string {
	style := severityStyles[sev]
	line := fmt.Sprintf("%-10s [%s]", label+":", style.tag)
	if message != "" {
		line += " " + message
	}
	if p.color {
		return style.colors.Sprint(line)
	}
	return line
}

func runSeverity(status journal.Status) severity {
	switch status {
	case journal.StatusCompleted:
		return sevOK
	case journal.StatusFailed:
		return sevError
	case journal.StatusCancelled:
		return sevWarn
	default:
		return sevInfo
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
