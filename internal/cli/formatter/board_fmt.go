package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
)

const (
	minColumnWidth = 18
	cardLines      = 4 // border + title + meta + border
)

// BoardView describes the cursor state the board is rendered with.
type BoardView struct {
	Width  int
	Height int
	// Col and Row locate the cursor. Row indexes cards within Col.
	Col, Row int
	// Offset is the first visible card row in every column.
	Offset int
}

// RenderBoard lays the snapshot out as kanban columns. The picked-up deal
// (Snapshot.Dragging) stays in its column, dimmed, while the cursor column's
// header is highlighted as the drop target. Pending cards carry a sync marker.
func RenderBoard(snap pipeline.Snapshot, v BoardView) string {
	n := len(snap.Columns)
	if n == 0 {
		return Dim("No stages configured.")
	}

	colWidth := minColumnWidth
	if v.Width > 0 {
		if w := (v.Width - (n - 1)) / n; w > colWidth {
			colWidth = w
		}
	}
	visible := 0
	if v.Height > 0 {
		visible = (v.Height - 3) / cardLines
		if visible < 1 {
			visible = 1
		}
	}

	cols := make([]string, n)
	for i, col := range snap.Columns {
		cols[i] = renderColumn(col, i, n, colWidth, visible, snap.Dragging, v)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(cols)...)
}

func joinWithGap(cols []string) []string {
	out := make([]string, 0, len(cols)*2-1)
	for i, c := range cols {
		if i > 0 {
			out = append(out, " ")
		}
		out = append(out, c)
	}
	return out
}

func renderColumn(col pipeline.Column, idx, total, width, visible int, dragging int64, v BoardView) string {
	color := StageColor(col.Stage, total)
	inner := width - 2

	title := fmt.Sprintf("%s %d", col.Stage.Name, len(col.Cards))
	headerStyle := lipgloss.NewStyle().Foreground(color).Bold(true).Width(width)
	if dragging != 0 && idx == v.Col {
		headerStyle = headerStyle.Reverse(true)
		title = "▼ " + title
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(Truncate(title, width)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Width(width).Render(Truncate(Currency(col.TotalValue)+" · "+Currency(col.WeightedValue)+" wtd", width)))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("─", width)))

	start, end := 0, len(col.Cards)
	if visible > 0 {
		start = v.Offset
		if start > len(col.Cards) {
			start = len(col.Cards)
		}
		if end > start+visible {
			end = start + visible
		}
	}
	if start > 0 {
		b.WriteString("\n")
		b.WriteString(Dim(fmt.Sprintf("↑ %d more", start)))
	}
	for row := start; row < end; row++ {
		card := col.Cards[row]
		focused := idx == v.Col && row == v.Row && dragging == 0
		b.WriteString("\n")
		b.WriteString(renderCard(card, inner, focused, card.Deal.ID == dragging))
	}
	if end < len(col.Cards) {
		b.WriteString("\n")
		b.WriteString(Dim(fmt.Sprintf("↓ %d more", len(col.Cards)-end)))
	}
	if len(col.Cards) == 0 {
		b.WriteString("\n")
		b.WriteString(Dim("empty"))
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func renderCard(card pipeline.Card, inner int, focused, held bool) string {
	border := ColorDim
	if focused {
		border = ColorHeader
	}

	title := card.Deal.Title
	if card.Pending {
		title = "⟳ " + title
	}
	if held {
		title = "✋ " + title
	}
	meta := fmt.Sprintf("%s · %d%%", Currency(card.Deal.Value), card.Deal.Probability)
	who := card.ContactName
	if who == "" {
		who = fmt.Sprintf("#%d", card.Deal.ContactID)
	}

	body := Truncate(title, inner) + "\n" + Truncate(meta+" · "+who, inner)
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(inner)
	switch {
	case held:
		style = style.Foreground(ColorDim).BorderStyle(lipgloss.NormalBorder())
	case card.Pending:
		style = style.Foreground(ColorDim)
	case focused:
		style = style.Foreground(ColorFg).Bold(true)
	}
	return style.Render(body)
}
