package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorOrange = lipgloss.Color("#fe8019")
	ColorGray   = lipgloss.Color("#a89984")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = ColorOrange
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// stageColors follows pipeline progress: gray for fresh leads through green
// for the terminal stage.
var stageColors = []lipgloss.Color{ColorGray, ColorBlue, ColorYellow, ColorOrange, ColorGreen}

// StageColor picks a color by the stage's position in the pipeline. The
// terminal stage is always green whatever the catalog length.
func StageColor(stage domain.Stage, total int) lipgloss.Color {
	if total <= 0 || stage.Rank >= total {
		return ColorGreen
	}
	if total <= len(stageColors) {
		return stageColors[stage.Rank-1]
	}
	idx := (stage.Rank - 1) * (len(stageColors) - 1) / (total - 1)
	return stageColors[idx]
}

// StageBadge renders the stage name in its pipeline color.
func StageBadge(stage domain.Stage, total int) string {
	return lipgloss.NewStyle().Foreground(StageColor(stage, total)).Render("● " + stage.Name)
}

// ActivityIcon returns a one-glyph marker per activity type.
func ActivityIcon(t domain.ActivityType) string {
	switch t {
	case domain.ActivityCall:
		return StyleGreen.Render("☎")
	case domain.ActivityEmail:
		return StyleBlue.Render("✉")
	case domain.ActivityMeeting:
		return StylePurple.Render("◆")
	case domain.ActivityTask:
		return StyleYellow.Render("☐")
	case domain.ActivityNote:
		return StyleDim.Render("✎")
	default:
		return StyleDim.Render("•")
	}
}

// ActivityLabel is the capitalized type name with its icon.
func ActivityLabel(t domain.ActivityType) string {
	return fmt.Sprintf("%s %s", ActivityIcon(t), domain.Capitalize(string(t)))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
