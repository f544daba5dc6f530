package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type contactsLoadedMsg struct {
	contacts []domain.Contact
	err      error
}

// contactListView shows a navigable, filterable list of contacts.
type contactListView struct {
	state    *SharedState
	contacts []domain.Contact
	cursor   int
	loading  bool
	err      error

	filtering bool
	filter    string
}

func newContactListView(state *SharedState) *contactListView {
	return &contactListView{state: state, loading: true}
}

func (v *contactListView) ID() ViewID    { return ViewContactList }
func (v *contactListView) Title() string { return "Contacts" }

func (v *contactListView) CapturesInput() bool { return v.filtering }

func (v *contactListView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "log activity")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	}
}

func (v *contactListView) Init() tea.Cmd {
	return v.load()
}

func (v *contactListView) load() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		contacts, err := app.Contacts.List(context.Background(), "", service.SortContactsByName)
		return contactsLoadedMsg{contacts: contacts, err: err}
	}
}

func (v *contactListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case contactsLoadedMsg:
		v.loading = false
		v.err = msg.err
		v.contacts = msg.contacts
		if n := len(v.visible()); v.cursor >= n {
			v.cursor = max(n-1, 0)
		}
		return v, nil

	case refreshViewMsg:
		return v, v.load()

	case tea.KeyMsg:
		if v.filtering {
			return v.updateFilter(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *contactListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := v.visible()

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(visible)-1 {
			v.cursor++
		}
	case "enter":
		if v.cursor < len(visible) {
			return v, v.showContact(visible[v.cursor].ID)
		}
	case "n":
		return v, v.newContactForm()
	case "a":
		if v.cursor < len(visible) {
			return v, logActivityForm(v.state, visible[v.cursor].ID, nil)
		}
	case "x", "d":
		if v.cursor < len(visible) {
			return v, v.confirmDelete(visible[v.cursor])
		}
	case "/":
		v.filtering = true
		v.filter = ""
	}
	return v, nil
}

func (v *contactListView) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.filtering = false
		v.filter = ""
		v.cursor = 0
	case tea.KeyEnter:
		v.filtering = false
	case tea.KeyBackspace:
		if len(v.filter) > 0 {
			v.filter = v.filter[:len(v.filter)-1]
			v.cursor = 0
		}
	default:
		if len(msg.String()) == 1 {
			v.filter += msg.String()
			v.cursor = 0
		}
	}
	return v, nil
}

func (v *contactListView) visible() []domain.Contact {
	if v.filter == "" {
		return v.contacts
	}
	var out []domain.Contact
	for _, c := range v.contacts {
		if c.Matches(v.filter) {
			out = append(out, c)
		}
	}
	return out
}

func (v *contactListView) showContact(id int64) tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		ctx := context.Background()
		c, err := app.Contacts.Get(ctx, id)
		if err != nil {
			return cmdOutputMsg{output: formatter.StyleRed.Render("Error: " + err.Error())}
		}
		deals, err := app.Contacts.Deals(ctx, id)
		if err != nil {
			return cmdOutputMsg{output: formatter.StyleRed.Render("Error: " + err.Error())}
		}
		acts, err := app.Activities.List(ctx, service.ActivityListFilter{
			ContactID: id, Sort: service.SortActivitiesRecent, Limit: 10,
		})
		if err != nil {
			return cmdOutputMsg{output: formatter.StyleRed.Render("Error: " + err.Error())}
		}
		return cmdOutputMsg{output: formatter.FormatContact(c, deals, acts, app.Stages, app.now())}
	}
}

func (v *contactListView) newContactForm() tea.Cmd {
	f := newContactForm()
	app := v.state.App
	board := v.state.Board
	return startWizardCmd(v.state, "New contact", f.form, func() tea.Cmd {
		c := f.contact()
		return func() tea.Msg {
			ctx := context.Background()
			created, err := app.Contacts.Create(ctx, c)
			if err != nil {
				return cmdOutputMsg{output: formatter.StyleRed.Render(describeError(err))}
			}
			// The board's contact list feeds the deal form.
			_ = board.Load(ctx)
			return cmdOutputMsg{output: fmt.Sprintf("%s contact #%d %s\n",
				formatter.StyleGreen.Render("Added"), created.ID, formatter.Bold(created.Name))}
		}
	})
}

func (v *contactListView) confirmDelete(c domain.Contact) tea.Cmd {
	var ok bool
	app := v.state.App
	board := v.state.Board
	form := wizardConfirm(fmt.Sprintf("Delete %s and their activities?", c.Name), &ok)
	return startWizardCmd(v.state, "Delete contact", form, func() tea.Cmd {
		if !ok {
			return nil
		}
		return func() tea.Msg {
			ctx := context.Background()
			if err := app.Contacts.Delete(ctx, c.ID); err != nil {
				if errors.Is(err, domain.ErrContactInUse) {
					return cmdOutputMsg{output: formatter.StyleRed.Render(c.Name + " still has deals; move or delete them first.")}
				}
				return cmdOutputMsg{output: formatter.StyleRed.Render("Error: " + err.Error())}
			}
			_ = board.Load(ctx)
			return cmdOutputMsg{output: fmt.Sprintf("Removed contact #%d %s\n", c.ID, c.Name)}
		}
	})
}

func (v *contactListView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading contacts...")
	}
	if v.err != nil {
		return "\n  " + formatter.StyleRed.Render("Error: "+v.err.Error())
	}

	visible := v.visible()
	now := v.state.App.now()

	var b strings.Builder
	b.WriteString("\n")
	if v.filtering || v.filter != "" {
		b.WriteString("  " + formatter.StyleYellow.Render("/") + " " + v.filter)
		if v.filtering {
			b.WriteString("█")
		}
		b.WriteString("\n\n")
	}
	if len(visible) == 0 {
		b.WriteString("  " + formatter.Dim("No contacts found.") + "\n")
		return b.String()
	}

	height := max(v.state.ContentHeight()-3, 1)
	start := 0
	if v.state.Height > 0 && v.cursor >= height {
		start = v.cursor - height + 1
	}
	for i := start; i < len(visible); i++ {
		if v.state.Height > 0 && i-start >= height {
			break
		}
		c := visible[i]
		cursor := "  "
		nameStyle := formatter.StyleFg
		if i == v.cursor {
			cursor = formatter.StyleGreen.Render("▸ ")
			nameStyle = formatter.StyleBold
		}
		last := formatter.Dim("never")
		if c.LastContactedAt != nil {
			last = formatter.Dim(formatter.RelativeTimeFrom(*c.LastContactedAt, now))
		}
		b.WriteString(fmt.Sprintf("%s%s  %s  %s  %s\n",
			cursor,
			formatter.StylePurple.Render(padRight(formatter.Initials(c.Name), 2)),
			nameStyle.Render(padRight(c.Name, 22)),
			formatter.Dim(padRight(formatter.Or(c.Company), 18)),
			last,
		))
	}
	return b.String()
}

// padRight pads a string to a display width, truncating if needed.
func padRight(s string, width int) string {
	s = formatter.Truncate(s, width)
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
