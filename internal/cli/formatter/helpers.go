package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		inner := titleRendered + "\n\n" + content
		return boxStyle.Render(inner)
	}

	return boxStyle.Render(content)
}

// Currency renders whole US dollars with thousands separators: $12,500.
func Currency(amount float64) string {
	rounded := math.Round(amount)
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	digits := strconv.FormatFloat(rounded, 'f', 0, 64)

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + "$" + b.String()
}

// Percent rounds to a whole percentage: 33.4 -> "33%".
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v)))
}

// RelativeTime describes t relative to now.
func RelativeTime(t time.Time) string {
	return RelativeTimeFrom(t, time.Now())
}

// RelativeTimeFrom describes t relative to now: "Today at 3:04 PM",
// "Yesterday at 9:15 AM", otherwise a compact distance such as "3d ago" or
// "in 2w". Calendar days are compared in now's location.
func RelativeTimeFrom(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.In(now.Location())
	switch calendarDays(local, now) {
	case 0:
		return "Today at " + local.Format("3:04 PM")
	case -1:
		return "Yesterday at " + local.Format("3:04 PM")
	}

	diff := now.Sub(local)
	suffix := " ago"
	prefix := ""
	if diff < 0 {
		diff = -diff
		prefix = "in "
		suffix = ""
	}
	days := int(math.Round(diff.Hours() / 24))
	if days < 1 {
		days = 1
	}
	var span string
	switch {
	case days < 14:
		span = fmt.Sprintf("%dd", days)
	case days < 60:
		span = fmt.Sprintf("%dw", days/7)
	case days < 365:
		span = fmt.Sprintf("%dmo", days/30)
	default:
		span = fmt.Sprintf("%dy", days/365)
	}
	return prefix + span + suffix
}

// calendarDays is the whole-day offset of t from now's date.
func calendarDays(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// HumanDate returns an absolute date like "Jan 02, 2026".
func HumanDate(t time.Time) string {
	return t.Format("Jan 02, 2006")
}

// CloseDate renders an expected close date, colored by urgency relative
// to now: overdue red, within a week yellow.
func CloseDate(t *time.Time, now time.Time) string {
	if t == nil {
		return Dim("—")
	}
	text := HumanDate(*t)
	days := calendarDays(*t, now)
	switch {
	case days < 0:
		return StyleRed.Render(text)
	case days <= 7:
		return StyleYellow.Render(text)
	default:
		return StyleFg.Render(text)
	}
}

// FormatMinutes converts raw minutes into human-friendly format.
func FormatMinutes(min int) string {
	if min <= 0 {
		return "0m"
	}
	h := min / 60
	m := min % 60
	if h > 0 && m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}

// Initials returns up to two uppercase initials, or "?" for an empty name.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return strings.ToUpper(string(out))
}

// Tags renders tags as dim #labels.
func Tags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return StylePurple.Render(strings.Join(parts, " "))
}

// Truncate shortens s to width visible cells, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Or returns s, or a dim dash when s is empty.
func Or(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dim("—")
	}
	return s
}
