package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type boardLoadedMsg struct {
	err error
}

// dropResultMsg reports how a drop settled once the store answered.
type dropResultMsg struct {
	dealID  int64
	from    string
	outcome pipeline.Outcome
	err     error
}

// dealSavedMsg follows a create, edit or delete issued from a form.
type dealSavedMsg struct {
	dealID  int64
	message string
	err     error
}

// boardView is the kanban board. Space or enter picks up the focused deal;
// left and right then choose the target column and space or enter drops it
// there.
type boardView struct {
	state   *SharedState
	snap    pipeline.Snapshot
	loading bool
	err     error

	col, row, offset int
	holding          int64

	flash    string
	flashErr bool
}

func newBoardView(state *SharedState) *boardView {
	return &boardView{state: state, loading: true}
}

func (v *boardView) ID() ViewID    { return ViewBoard }
func (v *boardView) Title() string { return "Board" }

func (v *boardView) CapturesInput() bool { return v.holding != 0 }

func (v *boardView) ShortHelp() []key.Binding {
	if v.holding != 0 {
		return []key.Binding{
			key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "choose stage")),
			key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "drop")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "log activity")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

func (v *boardView) Init() tea.Cmd {
	board := v.state.Board
	if snap := board.Snapshot(); snap.Loaded {
		v.loading = false
		v.refresh()
		return nil
	}
	return func() tea.Msg {
		return boardLoadedMsg{err: board.Load(context.Background())}
	}
}

// refresh re-reads the board and keeps the cursor inside it.
func (v *boardView) refresh() {
	v.snap = v.state.Board.Snapshot()
	v.clampCursor()
}

func (v *boardView) clampCursor() {
	n := len(v.snap.Columns)
	if n == 0 {
		v.col, v.row, v.offset = 0, 0, 0
		return
	}
	v.col = min(max(v.col, 0), n-1)
	cards := len(v.snap.Columns[v.col].Cards)
	v.row = min(max(v.row, 0), max(cards-1, 0))

	visible := v.visibleCards()
	if v.row < v.offset {
		v.offset = v.row
	}
	if visible > 0 && v.row >= v.offset+visible {
		v.offset = v.row - visible + 1
	}
}

func (v *boardView) visibleCards() int {
	h := v.state.ContentHeight() - 2
	if v.state.Height == 0 {
		return 0
	}
	return max((h-3)/4, 1)
}

// focus moves the cursor onto dealID wherever it now sits.
func (v *boardView) focus(dealID int64) {
	for ci, col := range v.snap.Columns {
		for ri, c := range col.Cards {
			if c.Deal.ID == dealID {
				v.col, v.row = ci, ri
				v.clampCursor()
				return
			}
		}
	}
}

func (v *boardView) focused() (pipeline.Card, bool) {
	if v.col >= len(v.snap.Columns) {
		return pipeline.Card{}, false
	}
	cards := v.snap.Columns[v.col].Cards
	if v.row >= len(cards) {
		return pipeline.Card{}, false
	}
	return cards[v.row], true
}

func (v *boardView) setFlash(msg string, isErr bool) {
	v.flash = msg
	v.flashErr = isErr
}

func (v *boardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		v.loading = false
		v.err = msg.err
		v.refresh()
		return v, nil

	case boardChangedMsg, refreshViewMsg, tea.WindowSizeMsg:
		if !v.loading {
			v.refresh()
		}
		return v, nil

	case dropResultMsg:
		v.refresh()
		v.focus(msg.dealID)
		v.showDropResult(msg)
		return v, nil

	case dealSavedMsg:
		v.refresh()
		if msg.err != nil {
			v.setFlash(describeError(msg.err), true)
			return v, nil
		}
		if msg.dealID != 0 {
			v.focus(msg.dealID)
		}
		v.setFlash(msg.message, false)
		return v, nil

	case tea.KeyMsg:
		if v.loading {
			return v, nil
		}
		v.flash = ""
		if v.holding != 0 {
			return v.updateHolding(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *boardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		v.col--
		v.clampCursor()
	case "right", "l":
		v.col++
		v.clampCursor()
	case "up", "k":
		v.row--
		v.clampCursor()
	case "down", "j":
		v.row++
		v.clampCursor()
	case " ":
		v.pickUp()
	case "enter":
		if card, ok := v.focused(); ok {
			return v, v.showDeal(card.Deal.ID)
		}
	case "n":
		return v, v.newDealForm()
	case "e":
		if card, ok := v.focused(); ok {
			return v, v.editDealForm(card.Deal)
		}
	case "x", "d":
		if card, ok := v.focused(); ok {
			return v, v.confirmDelete(card.Deal)
		}
	case "a":
		if card, ok := v.focused(); ok {
			id := card.Deal.ID
			return v, logActivityForm(v.state, card.Deal.ContactID, &id)
		}
	case "r":
		board := v.state.Board
		v.loading = true
		return v, func() tea.Msg {
			return boardLoadedMsg{err: board.Load(context.Background())}
		}
	}
	return v, nil
}

func (v *boardView) pickUp() {
	card, ok := v.focused()
	if !ok {
		return
	}
	if !v.state.Board.BeginDrag(card.Deal.ID) {
		v.setFlash(fmt.Sprintf("%s is still saving; try again in a moment.", card.Deal.Title), true)
		return
	}
	v.holding = card.Deal.ID
	v.snap = v.state.Board.Snapshot()
}

func (v *boardView) updateHolding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		if v.col > 0 {
			v.col--
			v.state.Board.DragOver(v.snap.Columns[v.col].Stage.ID)
		}
	case "right", "l":
		if v.col < len(v.snap.Columns)-1 {
			v.col++
			v.state.Board.DragOver(v.snap.Columns[v.col].Stage.ID)
		}
	case " ", "enter":
		return v, v.drop()
	case "esc":
		v.state.Board.CancelDrag()
		id := v.holding
		v.holding = 0
		v.refresh()
		v.focus(id)
	}
	return v, nil
}

// drop hands the move to the board in a command. The card is redrawn in
// its new column, marked pending, as soon as the board applies it locally.
func (v *boardView) drop() tea.Cmd {
	id := v.holding
	v.holding = 0
	if v.col >= len(v.snap.Columns) {
		v.state.Board.CancelDrag()
		return nil
	}
	target := v.snap.Columns[v.col].Stage.ID
	from := ""
	if c, ok := v.snap.Card(id); ok {
		from = c.Deal.StageID
	}
	board := v.state.Board
	return func() tea.Msg {
		outcome, err := board.Drop(context.Background(), target)
		return dropResultMsg{dealID: id, from: from, outcome: outcome, err: err}
	}
}

func (v *boardView) showDropResult(msg dropResultMsg) {
	if msg.err != nil {
		v.setFlash(describeError(msg.err), true)
		return
	}
	switch msg.outcome {
	case pipeline.OutcomeMoved:
		if card, ok := v.snap.Card(msg.dealID); ok {
			v.setFlash(strings.TrimSpace(formatter.FormatStageMove(card.Deal, msg.from, v.state.Board.Stages())), false)
		}
	case pipeline.OutcomeUnchanged:
		v.setFlash("Dropped on its own stage; nothing changed.", false)
	}
}

func (v *boardView) showDeal(id int64) tea.Cmd {
	app := v.state.App
	d, ok := v.state.Board.Deal(id)
	if !ok {
		return nil
	}
	name := ""
	if c, ok := v.snap.Card(id); ok {
		name = c.ContactName
	}
	return func() tea.Msg {
		acts, err := app.Activities.List(context.Background(), service.ActivityListFilter{
			DealID: id, Sort: service.SortActivitiesRecent, Limit: 10,
		})
		if err != nil {
			return cmdOutputMsg{output: formatter.StyleRed.Render("Error: " + err.Error())}
		}
		return cmdOutputMsg{output: formatter.FormatDeal(d, name, app.Stages, acts, app.now())}
	}
}

func (v *boardView) newDealForm() tea.Cmd {
	if len(v.snap.Contacts) == 0 {
		v.setFlash("Add a contact first (2 → n).", true)
		return nil
	}
	stage := ""
	if v.col < len(v.snap.Columns) {
		stage = v.snap.Columns[v.col].Stage.ID
	}
	f := newDealForm(v.state.Board.Stages(), v.snap.Contacts, nil, stage)
	board := v.state.Board
	return startWizardCmd(v.state, "New deal", f.form, func() tea.Cmd {
		in, err := f.input()
		if err != nil {
			return func() tea.Msg { return dealSavedMsg{err: err} }
		}
		return func() tea.Msg {
			d, err := board.Create(context.Background(), in)
			if err != nil {
				return dealSavedMsg{err: err}
			}
			return dealSavedMsg{dealID: d.ID, message: fmt.Sprintf("Created deal #%d %s", d.ID, d.Title)}
		}
	})
}

func (v *boardView) editDealForm(d domain.Deal) tea.Cmd {
	f := newDealForm(v.state.Board.Stages(), v.snap.Contacts, &d, d.StageID)
	board := v.state.Board
	return startWizardCmd(v.state, "Edit deal", f.form, func() tea.Cmd {
		patch, err := f.patch(d)
		if err != nil {
			return func() tea.Msg { return dealSavedMsg{err: err} }
		}
		if patch.IsEmpty() {
			return func() tea.Msg { return dealSavedMsg{dealID: d.ID, message: "No changes."} }
		}
		return func() tea.Msg {
			updated, err := board.Edit(context.Background(), d.ID, patch)
			if err != nil {
				return dealSavedMsg{err: err}
			}
			return dealSavedMsg{dealID: updated.ID, message: fmt.Sprintf("Updated deal #%d %s", updated.ID, updated.Title)}
		}
	})
}

func (v *boardView) confirmDelete(d domain.Deal) tea.Cmd {
	var ok bool
	board := v.state.Board
	form := wizardConfirm(fmt.Sprintf("Delete deal #%d %s?", d.ID, d.Title), &ok)
	return startWizardCmd(v.state, "Delete deal", form, func() tea.Cmd {
		if !ok {
			return nil
		}
		return func() tea.Msg {
			if err := board.Delete(context.Background(), d.ID); err != nil {
				return dealSavedMsg{err: err}
			}
			return dealSavedMsg{message: fmt.Sprintf("Removed deal #%d", d.ID)}
		}
	})
}

func (v *boardView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading board...")
	}
	if v.err != nil {
		return "\n  " + formatter.StyleRed.Render("Error: "+describeError(v.err))
	}

	var b strings.Builder
	b.WriteString(v.summaryLine())
	b.WriteString("\n")
	b.WriteString(formatter.RenderBoard(v.snap, formatter.BoardView{
		Width:  v.state.Width,
		Height: v.state.ContentHeight() - 2,
		Col:    v.col,
		Row:    v.row,
		Offset: v.offset,
	}))
	return b.String()
}

func (v *boardView) summaryLine() string {
	if v.flash != "" {
		if v.flashErr {
			return formatter.StyleRed.Render(v.flash)
		}
		return formatter.StyleGreen.Render(v.flash)
	}
	if v.holding != 0 {
		if c, ok := v.snap.Card(v.holding); ok {
			return formatter.StyleYellow.Render("Moving " + c.Deal.Title + " · choose a stage")
		}
	}
	return formatter.Dim(fmt.Sprintf("%d %s · %s pipeline · %s weighted",
		v.snap.DealCount(), pluralWord(v.snap.DealCount(), "deal"),
		formatter.Currency(v.snap.TotalValue()), formatter.Currency(v.snap.WeightedValue())))
}

func pluralWord(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
