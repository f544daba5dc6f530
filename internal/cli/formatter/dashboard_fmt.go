package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/charmbracelet/lipgloss"
)

const (
	trendWidth  = 28
	trendHeight = 3
	stageBarLen = 20
)

var statCardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorDim).
	Padding(0, 1)

// FormatDashboard renders the pipeline summary: headline figures, a per-stage
// breakdown, the activity trend and the recent activity feed.
func FormatDashboard(s *service.DashboardSummary, contactNames map[int64]string, now time.Time) string {
	var b strings.Builder

	cards := []string{
		statCard("Pipeline", Currency(s.TotalPipelineValue)),
		statCard("Weighted", Currency(s.WeightedPipeline)),
		statCard("Deals", fmt.Sprintf("%d", s.DealCount)),
		statCard("Avg deal", Currency(s.AverageDealSize)),
		statCard("Won", Percent(s.ConversionRate)),
		statCard("Contacts", fmt.Sprintf("%d", s.ContactCount)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n\n")

	b.WriteString(Header("Pipeline by stage"))
	b.WriteString("\n")
	b.WriteString(formatStageBreakdown(s))

	b.WriteString("\n")
	b.WriteString(Header(fmt.Sprintf("Activity, last %d days", len(s.ActivityTrend))))
	b.WriteString("\n")
	b.WriteString(activitySparkline(s.ActivityTrend))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(Header("Recent activity"))
	b.WriteString("\n")
	if len(s.RecentActivities) == 0 {
		b.WriteString(Dim("Nothing logged yet."))
		b.WriteString("\n")
	} else {
		b.WriteString(FormatTimeline(s.RecentActivities, contactNames, now))
	}
	return b.String()
}

func statCard(label, value string) string {
	return statCardStyle.Render(Dim(label) + "\n" + Bold(value))
}

func formatStageBreakdown(s *service.DashboardSummary) string {
	maxCount := 0
	nameWidth := 0
	for _, st := range s.Stages {
		if st.Count > maxCount {
			maxCount = st.Count
		}
		if w := lipgloss.Width(st.Stage.Name); w > nameWidth {
			nameWidth = w
		}
	}

	var b strings.Builder
	for _, st := range s.Stages {
		share := 0.0
		if maxCount > 0 {
			share = float64(st.Count) / float64(maxCount)
		}
		color := StageColor(st.Stage, len(s.Stages))
		bar := lipgloss.NewStyle().Foreground(color).Render(blocks(share, stageBarLen))
		fmt.Fprintf(&b, "%-*s  %s  %3d  %s\n",
			nameWidth, st.Stage.Name, bar, st.Count, Currency(st.Value))
	}
	return b.String()
}

func activitySparkline(trend []float64) string {
	total := 0.0
	for _, v := range trend {
		total += v
	}
	if total == 0 {
		return Dim("no activity")
	}
	spark := sparkline.New(trendWidth, trendHeight)
	spark.PushAll(trend)
	spark.Draw()
	return StylePurple.Render(spark.View())
}
