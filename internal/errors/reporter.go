package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"stylusguard/internal/ir"
)

// Reporter renders diagnostics against their source file with line
// context and an underline marker.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatParseDiagnostic renders a recovered-region diagnostic.
func (r *Reporter) FormatParseDiagnostic(pos ir.Position, message string) string {
	return r.format("warning", color.FgYellow, pos, message)
}

// FormatFatal renders a fatal parse error.
func (r *Reporter) FormatFatal(pos ir.Position, message string) string {
	return r.format("error", color.FgRed, pos, message)
}

func (r *Reporter) format(level string, fg color.Attribute, pos ir.Position, message string) string {
	levelColor := color.New(fg, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", levelColor(level), message)

	width := lineNumberWidth(pos.Line)
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&b, "%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, pos.Line, pos.Column)
	fmt.Fprintf(&b, "%s %s\n", indent, dim("│"))

	if pos.Line >= 1 && pos.Line <= len(r.lines) {
		fmt.Fprintf(&b, "%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, pos.Line)), dim("│"), r.lines[pos.Line-1])
		marker := strings.Repeat(" ", maxInt(0, pos.Column-1)) + levelColor("^")
		fmt.Fprintf(&b, "%s %s %s\n", indent, dim("│"), marker)
	}

	b.WriteString("\n")
	return b.String()
}

func lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3 // minimum width for visual alignment
	}
	return width
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
