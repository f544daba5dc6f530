package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const activityViewLimit = 200

type activitiesLoadedMsg struct {
	activities []domain.Activity
	names      map[int64]string
	err        error
}

// activityListView is the activity log, newest first. t cycles the type
// filter.
type activityListView struct {
	state      *SharedState
	activities []domain.Activity
	names      map[int64]string
	typ        domain.ActivityType
	cursor     int
	loading    bool
	err        error
}

func newActivityListView(state *SharedState) *activityListView {
	return &activityListView{state: state, loading: true}
}

func (v *activityListView) ID() ViewID    { return ViewActivityList }
func (v *activityListView) Title() string { return "Activities" }

func (v *activityListView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "log")),
		key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "type filter")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
	}
}

func (v *activityListView) Init() tea.Cmd {
	return v.load()
}

func (v *activityListView) load() tea.Cmd {
	app := v.state.App
	f := service.ActivityListFilter{Type: v.typ, Sort: service.SortActivitiesRecent, Limit: activityViewLimit}
	return func() tea.Msg {
		ctx := context.Background()
		acts, err := app.Activities.List(ctx, f)
		if err != nil {
			return activitiesLoadedMsg{err: err}
		}
		names, err := loadContactNames(ctx, app)
		return activitiesLoadedMsg{activities: acts, names: names, err: err}
	}
}

// nextType cycles "" → call → email → … → note → "".
func nextType(t domain.ActivityType) domain.ActivityType {
	types := domain.ActivityTypes()
	if t == "" {
		return types[0]
	}
	for i, x := range types {
		if x == t && i+1 < len(types) {
			return types[i+1]
		}
	}
	return ""
}

func (v *activityListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activitiesLoadedMsg:
		v.loading = false
		v.err = msg.err
		v.activities = msg.activities
		v.names = msg.names
		if v.cursor >= len(v.activities) {
			v.cursor = max(len(v.activities)-1, 0)
		}
		return v, nil

	case refreshViewMsg:
		return v, v.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(v.activities)-1 {
				v.cursor++
			}
		case "t":
			v.typ = nextType(v.typ)
			v.cursor = 0
			return v, v.load()
		case "n":
			return v, logActivityForm(v.state, 0, nil)
		case "x", "d":
			if v.cursor < len(v.activities) {
				return v, v.confirmDelete(v.activities[v.cursor])
			}
		}
	}
	return v, nil
}

func (v *activityListView) confirmDelete(a domain.Activity) tea.Cmd {
	var ok bool
	app := v.state.App
	form := wizardConfirm(fmt.Sprintf("Delete %s activity #%d?", a.Type, a.ID), &ok)
	return startWizardCmd(v.state, "Delete activity", form, func() tea.Cmd {
		if !ok {
			return nil
		}
		return func() tea.Msg {
			if err := app.Activities.Delete(context.Background(), a.ID); err != nil {
				return cmdOutputMsg{output: formatter.StyleRed.Render("Error: " + err.Error())}
			}
			return cmdOutputMsg{output: fmt.Sprintf("Removed activity #%d\n", a.ID)}
		}
	})
}

func (v *activityListView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading activities...")
	}
	if v.err != nil {
		return "\n  " + formatter.StyleRed.Render("Error: "+v.err.Error())
	}

	filter := "all types"
	if v.typ != "" {
		filter = formatter.ActivityLabel(v.typ)
	}

	var b strings.Builder
	b.WriteString("\n  " + formatter.Dim("Showing ") + filter + "\n\n")
	if len(v.activities) == 0 {
		b.WriteString("  " + formatter.Dim("No activities logged.") + "\n")
		return b.String()
	}

	now := v.state.App.now()
	height := max(v.state.ContentHeight()-4, 1)
	start := 0
	if v.state.Height > 0 && v.cursor >= height {
		start = v.cursor - height + 1
	}
	for i := start; i < len(v.activities); i++ {
		if v.state.Height > 0 && i-start >= height {
			break
		}
		a := v.activities[i]
		cursor := "  "
		descStyle := formatter.StyleFg
		if i == v.cursor {
			cursor = formatter.StyleGreen.Render("▸ ")
			descStyle = formatter.StyleBold
		}
		name := v.names[a.ContactID]
		if name == "" {
			name = fmt.Sprintf("#%d", a.ContactID)
		}
		dur := ""
		if a.DurationMinutes != nil {
			dur = formatter.Dim(" · " + formatter.FormatMinutes(*a.DurationMinutes))
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %s  %s%s\n",
			cursor,
			formatter.ActivityIcon(a.Type),
			formatter.Dim(padRight(formatter.RelativeTimeFrom(a.Date, now), 20)),
			descStyle.Render(padRight(a.Description, 40)),
			formatter.StylePurple.Render(name),
			dur,
		))
	}
	return b.String()
}
