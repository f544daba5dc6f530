package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

// FormatDealList renders deals as a table. contactNames maps contact ids to
// display names; unknown ids fall back to "#<id>".
func FormatDealList(deals []domain.Deal, contactNames map[int64]string, stages *domain.StageRegistry, now time.Time) string {
	if len(deals) == 0 {
		return Dim("No deals found.") + "\n"
	}

	headers := []string{"ID", "TITLE", "CONTACT", "STAGE", "VALUE", "PROB", "CLOSE"}
	rows := make([][]string, 0, len(deals))
	var total, weighted float64
	for _, d := range deals {
		rows = append(rows, []string{
			Dim(strconv.FormatInt(d.ID, 10)),
			Truncate(d.Title, 32),
			Truncate(contactName(contactNames, d.ContactID), 24),
			stageLabel(stages, d.StageID),
			Currency(d.Value),
			Percent(float64(d.Probability)),
			CloseDate(d.ExpectedCloseDate, now),
		})
		total += d.Value
		weighted += d.WeightedValue()
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows, 4, 5))
	fmt.Fprintf(&b, "\n%s %s  %s %s\n",
		Dim(pluralize(len(deals), "deal")+" ·"), Bold(Currency(total)),
		Dim("weighted"), StyleGreen.Render(Currency(weighted)))
	return b.String()
}

// FormatDeal renders one deal with its recent activities.
func FormatDeal(d domain.Deal, contact string, stages *domain.StageRegistry, activities []domain.Activity, now time.Time) string {
	var b strings.Builder

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("%-12s", label)), value)
	}
	field("Stage", stageLabel(stages, d.StageID))
	field("Value", Bold(Currency(d.Value)))
	field("Probability", ProbabilityBar(d.Probability, 20))
	field("Weighted", StyleGreen.Render(Currency(d.WeightedValue())))
	field("Contact", Or(contact))
	field("Close date", CloseDate(d.ExpectedCloseDate, now))
	if len(d.Tags) > 0 {
		field("Tags", Tags(d.Tags))
	}
	if d.Notes != "" {
		b.WriteString("\n")
		b.WriteString(d.Notes)
		b.WriteString("\n")
	}

	if len(activities) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Activity"))
		b.WriteString("\n")
		b.WriteString(FormatTimeline(activities, nil, now))
	}

	return RenderBox(fmt.Sprintf("#%d %s", d.ID, d.Title), strings.TrimRight(b.String(), "\n")) + "\n"
}

// FormatStageMove describes a completed transition: "Moved #4 Retrofit
// Lead → Proposal (50%)".
func FormatStageMove(d domain.Deal, from string, stages *domain.StageRegistry) string {
	return fmt.Sprintf("%s #%d %s  %s → %s %s\n",
		StyleGreen.Render("Moved"), d.ID, d.Title,
		stageName(stages, from), stageLabel(stages, d.StageID),
		Dim("("+Percent(float64(d.Probability))+")"))
}

func stageLabel(stages *domain.StageRegistry, id string) string {
	s, err := stages.ByID(id)
	if err != nil {
		return StyleRed.Render("? " + id)
	}
	return StageBadge(s, stages.Len())
}

func stageName(stages *domain.StageRegistry, id string) string {
	if s, err := stages.ByID(id); err == nil {
		return s.Name
	}
	return id
}

func contactName(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("#%d", id)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
