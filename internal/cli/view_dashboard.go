package cli

import (
	"context"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type dashboardLoadedMsg struct {
	summary *service.DashboardSummary
	names   map[int64]string
	err     error
}

type dashboardView struct {
	state   *SharedState
	summary *service.DashboardSummary
	names   map[int64]string
	loading bool
	err     error
}

func newDashboardView(state *SharedState) *dashboardView {
	return &dashboardView{state: state, loading: true}
}

func (v *dashboardView) ID() ViewID    { return ViewDashboard }
func (v *dashboardView) Title() string { return "Dashboard" }

func (v *dashboardView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (v *dashboardView) Init() tea.Cmd {
	return v.load()
}

func (v *dashboardView) load() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		ctx := context.Background()
		summary, err := app.Dashboard.Summary(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		names, err := loadContactNames(ctx, app)
		return dashboardLoadedMsg{summary: summary, names: names, err: err}
	}
}

func (v *dashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		v.loading = false
		v.err = msg.err
		v.summary = msg.summary
		v.names = msg.names
	case refreshViewMsg, boardChangedMsg:
		return v, v.load()
	case tea.KeyMsg:
		if msg.String() == "r" {
			return v, v.load()
		}
	}
	return v, nil
}

func (v *dashboardView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading dashboard...")
	}
	if v.err != nil {
		return "\n  " + formatter.StyleRed.Render("Error: "+v.err.Error())
	}
	return formatter.FormatDashboard(v.summary, v.names, v.state.App.now())
}
