package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// ProbabilityBar renders a win probability as [████░░░░]  45%. The bar is
// green from 66%, yellow from 33% and red below.
func ProbabilityBar(probability int, width int) string {
	pct := clampPct(float64(probability) / 100)
	return fmt.Sprintf("[%s] %3d%%", barStyle(pct).Render(blocks(pct, width)), int(pct*100+0.5))
}

// CompactBar renders a bar without brackets or percentage text, for board
// cards and table cells.
func CompactBar(pct float64, width int, dim bool) string {
	pct = clampPct(pct)
	bar := blocks(pct, width)
	if dim {
		return StyleDim.Render(bar)
	}
	return barStyle(pct).Render(bar)
}

func blocks(pct float64, width int) string {
	if width < 2 {
		width = 2
	}
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
}

func barStyle(pct float64) lipgloss.Style {
	switch {
	case pct < 0.33:
		return StyleRed
	case pct < 0.66:
		return StyleYellow
	default:
		return StyleGreen
	}
}

func clampPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}
