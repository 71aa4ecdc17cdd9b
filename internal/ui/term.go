package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Accepted placements: green
	colorOK = color.New(color.FgGreen)

	// Skipped tasks and secondary information: dim
	colorMuted = color.New(color.FgWhite, color.Faint)

	// Warnings: yellow to make them pop
	colorWarn = color.New(color.FgYellow)

	// Free slots and calendar names: cyan
	colorSlot = color.New(color.FgCyan)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatOK formats text for accepted placements.
func formatOK(s string) string {
	return colorOK.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}

// formatWarn formats text for warnings.
func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

// formatSlot formats text for free slots and calendars.
func formatSlot(s string) string {
	return colorSlot.Sprint(s)
}
