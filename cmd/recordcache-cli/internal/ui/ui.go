// Package ui renders recordcache-cli output: headers, tables, markdown,
// and the success/error/warning/info printers shared by every subcommand.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	PrimaryColor = lipgloss.Color("#00D9FF")
	SuccessColor = lipgloss.Color("#00FF88")
	WarningColor = lipgloss.Color("#FFB800")
	ErrorColor   = lipgloss.Color("#FF4444")
	InfoColor    = lipgloss.Color("#00D9FF")
	MutedColor   = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
)

// PrintHeader prints the banner shown at the top of every subcommand.
func PrintHeader(title, subtitle string) {
	width := 80
	if w := pterm.GetTerminalWidth(); w > 0 {
		width = w
	}

	header := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Center,
				TitleStyle.Render(title),
				MutedStyle.Render(subtitle),
			),
		)
	fmt.Println(header)
	fmt.Println()
}

func PrintSuccess(format string, args ...interface{}) {
	fmt.Println(SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

func PrintWarning(format string, args ...interface{}) {
	fmt.Println(WarningStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

func PrintInfo(format string, args ...interface{}) {
	fmt.Println(InfoStyle.Render("ℹ " + fmt.Sprintf(format, args...)))
}

// PrintTable renders rows of record data with pterm's table printer.
func PrintTable(headers []string, rows [][]string) {
	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)
	pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

// PrintMarkdown renders a markdown document, used for `recordcache-cli
// inspect` output describing a schema's models.
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// Spinner starts a spinner with message and returns it for the caller to
// stop once the long-running step completes.
func Spinner(message string) *pterm.SpinnerPrinter {
	s, _ := pterm.DefaultSpinner.WithText(message).Start()
	return s
}

// Bold is a plain ANSI bold printer for terminals glamour/lipgloss don't
// cover, such as inline labels inside a table cell.
var Bold = color.New(color.Bold)

