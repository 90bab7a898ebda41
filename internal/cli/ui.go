package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Run Display
// =============================================================================

// printRunStats prints pipeline statistics on a single line.
func printRunStats(res *pipeline.Result) {
	var parts []string
	if res.Resolution != nil {
		parts = append(parts, fmt.Sprintf("%d log entries", res.Stats.LogCount))
		parts = append(parts, "resolved in "+res.Stats.ResolveTime.Round(time.Millisecond).String())
	} else {
		parts = append(parts, "from saved record")
	}

	status := iconFresh
	statusStyle := styleComputed
	if res.CacheInfo.RenderHit {
		status = iconCached
		statusStyle = styleCached
	}
	parts = append(parts, statusStyle.Render(status))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// recordRows lists the card fields as label/value pairs in card order.
func recordRows(rec passport.Record) [][2]string {
	return [][2]string{
		{"First name", rec.FirstName},
		{"Surname", rec.Surname},
		{"Nationality", rec.Nationality},
		{"Token ID", rec.TokenID},
		{"Reputation", rec.Reputation},
		{"Line", rec.LineNumber},
		{"Authority", rec.Authority},
		{"Issued", displayDate(rec.MintDate)},
		{"Expires", displayDate(rec.ExpiryDate)},
		{"Passport no", rec.PassportNumber},
		{"Wallet", rec.Wallet},
		{"Avatar", rec.Avatar},
	}
}

// printRecord prints every card field as a key/value list.
func printRecord(rec passport.Record) {
	for _, row := range recordRows(rec) {
		printKeyValue(row[0], orDash(row[1]))
	}
}

func displayDate(iso string) string {
	if d := passport.FormatDate(iso); d != "" {
		return d
	}
	return iso
}

func orDash(s string) string {
	if s == "" {
		return passport.Placeholder
	}
	return s
}

// PrintError reports err to the user. Identity lookup failures get the
// fixed message "Identity not found."; other coded errors print their
// message without the code prefix.
func PrintError(err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrCodeNotFound):
		printError("Identity not found.")
	case apperrors.Is(err, apperrors.ErrCodeTimeout):
		printError("Timed out: %s", apperrors.UserMessage(err))
	default:
		printError("%s", apperrors.UserMessage(err))
	}
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Utilities
// =============================================================================

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
