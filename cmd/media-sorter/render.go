package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/quidome/media-sorter/pkg/organize"
)

var (
	relocatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	simulatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC"))
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// formatOutcome renders o, colouring the verb when color is set.
func formatOutcome(o organize.Outcome, color bool) string {
	line := o.String()
	if !color {
		return line
	}

	var style lipgloss.Style
	switch {
	case o.Action == organize.ActionError:
		style = failedStyle
	case o.Action == organize.ActionSkip:
		style = skippedStyle
	case o.Simulated:
		style = simulatedStyle
	default:
		style = relocatedStyle
	}
	verb := o.Verb()
	return style.Render(verb) + strings.TrimPrefix(line, verb)
}

// outcomePrinter streams outcome lines as the engine produces them.
type outcomePrinter struct {
	out   io.Writer
	color bool
	bar   *progressbar.ProgressBar
}

// newOutcomePrinter shows a progress bar on errOut only when it is a terminal and out is
// redirected, so the bar never interleaves with outcome lines.
func newOutcomePrinter(out, errOut io.Writer, progress bool) *outcomePrinter {
	p := &outcomePrinter{out: out, color: isTerminal(out)}
	if progress && isTerminal(errOut) && !p.color {
		p.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionSetDescription("Organizing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p
}

func (p *outcomePrinter) OnStart(files int) {
	if p.bar != nil {
		p.bar.ChangeMax(files)
	}
}

func (p *outcomePrinter) OnOutcome(o organize.Outcome) {
	fmt.Fprintln(p.out, formatOutcome(o, p.color))
	if p.bar != nil {
		_ = p.bar.Add(o.Files())
	}
}

func (p *outcomePrinter) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// renderSummary returns the end-of-run table.
func renderSummary(r organize.Report) string {
	relocated := r.Count(organize.ActionMove) + r.Count(organize.ActionCopy)
	label := "Relocated"
	if len(r.Outcomes) > 0 && r.Outcomes[0].Simulated {
		label = "Would relocate"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Summary", "Count"})
	tw.AppendRows([]table.Row{
		{"Media found", strconv.Itoa(r.Found)},
		{"Live Photo pairs", strconv.Itoa(r.Pairs)},
		{label, strconv.Itoa(relocated)},
		{"Skipped (no date)", strconv.Itoa(r.SkippedFiles())},
		{"Errors", strconv.Itoa(r.Count(organize.ActionError))},
		{"Data", humanize.Bytes(uint64(r.Bytes()))},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render() + "\n"
}
