package cli

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/alexanderramin/dealflow/internal/teatest"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDriver wraps teatest.Driver with inspection of the appModel's view
// stack and the board view's cursor.
type TestDriver struct {
	*teatest.Driver
}

// NewTestDriver builds the TUI around a fresh board and drains Init(), which
// loads the board from the in-memory database.
func NewTestDriver(t *testing.T, app *App) *TestDriver {
	t.Helper()
	m := newAppModel(app, nil)
	d := teatest.New(t, m, teatest.WithSize(160, 40), teatest.WithCmdTimeout(250*time.Millisecond))
	d.DrainInit()
	return &TestDriver{Driver: d}
}

func (d *TestDriver) appModel() appModel {
	return d.Model.(appModel)
}

func (d *TestDriver) ActiveViewID() ViewID {
	m := d.appModel()
	if v := m.activeView(); v != nil {
		return v.ID()
	}
	return ViewID(-1)
}

func (d *TestDriver) Board() *boardView {
	d.T.Helper()
	bv, ok := d.appModel().viewStack[0].(*boardView)
	require.True(d.T, ok, "root view is not the board")
	return bv
}

func (d *TestDriver) PressRight() {
	d.T.Helper()
	d.Press("right")
}

func (d *TestDriver) PressSpace() {
	d.T.Helper()
	d.Press("space")
}

// ── Board ────────────────────────────────────────────────────────────────────

func TestTUI_BoardLoadsColumns(t *testing.T) {
	app := testApp(t)
	seedPipeline(t, app)
	d := NewTestDriver(t, app)

	assert.Equal(t, ViewBoard, d.ActiveViewID())
	view := plain(d.View())
	assert.Contains(t, view, "Lead 1")
	assert.Contains(t, view, "Qualified 1")
	assert.Contains(t, view, "Proposal 1")
	assert.Contains(t, view, "3 deals")
}

func TestTUI_DragDropMovesDeal(t *testing.T) {
	app := testApp(t)
	_, deals := seedPipeline(t, app)
	d := NewTestDriver(t, app)

	d.PressSpace()
	assert.Equal(t, deals[0].ID, d.Board().holding)
	assert.Contains(t, plain(d.View()), "Moving Website rebuild")

	d.PressRight()
	d.PressRight()
	d.PressSpace()

	bv := d.Board()
	assert.Zero(t, bv.holding)
	assert.Equal(t, 2, bv.col, "cursor follows the moved deal")
	assert.Contains(t, plain(d.View()), "Moved #1")

	saved, err := app.Store.Deals.Get(context.Background(), deals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "proposal", saved.StageID)
	assert.Equal(t, 50, saved.Probability)
}

func TestTUI_EscCancelsDragWithoutLeavingBoard(t *testing.T) {
	app := testApp(t)
	_, deals := seedPipeline(t, app)
	d := NewTestDriver(t, app)

	d.PressSpace()
	d.PressRight()
	d.PressEsc()

	bv := d.Board()
	assert.Zero(t, bv.holding)
	assert.Zero(t, bv.state.Board.Dragging())
	assert.Equal(t, 0, bv.col, "cursor returns to the deal")
	assert.Equal(t, ViewBoard, d.ActiveViewID())

	saved, err := app.Store.Deals.Get(context.Background(), deals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "lead", saved.StageID)
}

// failingDeals fails every Update so drops roll back.
type failingDeals struct {
	recordstore.Deals
	mu    sync.Mutex
	calls int
}

func (f *failingDeals) Update(context.Context, int64, domain.DealPatch) (domain.Deal, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return domain.Deal{}, errors.New("connection reset")
}

func TestTUI_FailedDropRollsBack(t *testing.T) {
	app := testApp(t)
	_, deals := seedPipeline(t, app)
	failing := &failingDeals{Deals: app.Store.Deals}
	app.NewBoard = func(extra ...pipeline.Notifier) *pipeline.Board {
		return pipeline.NewBoard(app.Stages, failing, app.Store.Contacts, pipeline.WithNotifier(pipeline.MultiNotifier(extra)))
	}
	d := NewTestDriver(t, app)

	d.PressSpace()
	d.PressRight()
	d.PressSpace()

	assert.Equal(t, 1, failing.calls)
	bv := d.Board()
	assert.Equal(t, 0, bv.col, "cursor follows the deal back to its stage")
	card, ok := bv.snap.Card(deals[0].ID)
	require.True(t, ok)
	assert.Equal(t, "lead", card.Deal.StageID)
	assert.Equal(t, 10, card.Deal.Probability)
	assert.False(t, card.Pending)
	assert.Contains(t, plain(d.View()), "move reverted")
}

func TestTUI_PickUpEmptyColumnIsNoop(t *testing.T) {
	app := testApp(t)
	seedPipeline(t, app)
	d := NewTestDriver(t, app)

	for range 4 {
		d.PressRight()
	}
	d.PressSpace()
	assert.Zero(t, d.Board().holding)
}

func TestTUI_EnterShowsDealDetails(t *testing.T) {
	app := testApp(t)
	seedPipeline(t, app)
	d := NewTestDriver(t, app)

	d.PressEnter()
	view := plain(d.View())
	assert.Contains(t, view, "Website rebuild")
	assert.Contains(t, view, "Ada Lovelace")

	d.PressKey('z')
	assert.NotContains(t, plain(d.View()), "any key: dismiss")
}

func TestTUI_NewDealOpensFormAndEscCancels(t *testing.T) {
	app := testApp(t)
	seedPipeline(t, app)
	d := NewTestDriver(t, app)

	d.PressKey('n')
	assert.Equal(t, ViewForm, d.ActiveViewID())

	d.PressEsc()
	assert.Equal(t, ViewBoard, d.ActiveViewID())
	assert.Contains(t, plain(d.View()), "Cancelled.")
}

func TestTUI_NewDealWithoutContacts(t *testing.T) {
	app := testApp(t)
	d := NewTestDriver(t, app)

	d.PressKey('n')
	assert.Equal(t, ViewBoard, d.ActiveViewID())
	assert.Contains(t, plain(d.View()), "Add a contact first")
}

func TestTUI_DealSavedMsgFocusesDeal(t *testing.T) {
	app := testApp(t)
	acme, _ := seedPipeline(t, app)
	d := NewTestDriver(t, app)
	board := d.Board().state.Board

	created, err := board.Create(context.Background(), domain.DealInput{
		Title: "Audit", Value: 900, ContactID: acme.ID, StageID: "negotiation",
	})
	require.NoError(t, err)
	d.Send(dealSavedMsg{dealID: created.ID, message: "Created deal #4 Audit"})

	bv := d.Board()
	assert.Equal(t, 3, bv.col)
	assert.Contains(t, plain(d.View()), "Created deal #4 Audit")
	assert.Contains(t, plain(d.View()), "Negotiation 1")
}

// ── Navigation ───────────────────────────────────────────────────────────────

func TestTUI_NumberKeysSwitchSections(t *testing.T) {
	app := testApp(t)
	seedPipeline(t, app)
	d := NewTestDriver(t, app)

	d.PressKey('2')
	assert.Equal(t, ViewContactList, d.ActiveViewID())
	assert.Contains(t, plain(d.View()), "Grace Hopper")

	d.PressKey('3')
	assert.Equal(t, ViewActivityList, d.ActiveViewID())
	assert.Contains(t, plain(d.View()), "No activities logged.")

	d.PressKey('4')
	assert.Equal(t, ViewDashboard, d.ActiveViewID())
	assert.Contains(t, plain(d.View()), "$53,700")

	d.PressKey('1')
	assert.Equal(t, ViewBoard, d.ActiveViewID())
}

func TestTUI_ContactFilterCapturesKeys(t *testing.T) {
	app := testApp(t)
	seedPipeline(t, app)
	d := NewTestDriver(t, app)

	d.PressKey('2')
	d.PressKey('/')
	d.Type("gra")
	view := plain(d.View())
	assert.Contains(t, view, "Grace Hopper")
	assert.NotContains(t, view, "Ada Lovelace")

	// 'q' inside the filter is text, not quit.
	d.PressKey('q')
	assert.False(t, d.Quitting)
	d.PressEsc()
	assert.Contains(t, plain(d.View()), "Ada Lovelace")
}

func TestTUI_ActivityTypeFilterCycles(t *testing.T) {
	app := testApp(t)
	acme, _ := seedPipeline(t, app)
	ctx := context.Background()
	_, err := app.Activities.Log(ctx, domain.Activity{Type: domain.ActivityCall, Description: "Intro call", Date: app.now(), ContactID: acme.ID})
	require.NoError(t, err)
	_, err = app.Activities.Log(ctx, domain.Activity{Type: domain.ActivityEmail, Description: "Sent deck", Date: app.now(), ContactID: acme.ID})
	require.NoError(t, err)
	d := NewTestDriver(t, app)

	d.PressKey('3')
	view := plain(d.View())
	assert.Contains(t, view, "Intro call")
	assert.Contains(t, view, "Sent deck")

	d.PressKey('t') // call
	view = plain(d.View())
	assert.Contains(t, view, "Intro call")
	assert.NotContains(t, view, "Sent deck")
}

func TestTUI_QuitKey(t *testing.T) {
	app := testApp(t)
	d := NewTestDriver(t, app)
	d.PressKey('q')
	assert.True(t, d.Quitting)
}

func TestProgramNotifier_ForwardsBoardUpdates(t *testing.T) {
	var got []tea.Msg
	n := &programNotifier{}
	n.BoardUpdated(pipeline.Snapshot{})
	n.attach(func(m tea.Msg) { got = append(got, m) })
	n.BoardUpdated(pipeline.Snapshot{})
	n.attach(nil)
	n.BoardUpdated(pipeline.Snapshot{})

	require.Len(t, got, 1)
	assert.IsType(t, boardChangedMsg{}, got[0])
}

// ── Forms ────────────────────────────────────────────────────────────────────

func TestDealForm_InputAppliesStageDefault(t *testing.T) {
	stages := domain.DefaultStageRegistry()
	contacts := []domain.Contact{{ID: 7, Name: "Ada"}}
	f := newDealForm(stages, contacts, nil, "proposal")
	f.Title = "  Retrofit "
	f.Value = "$12,500"

	in, err := f.input()
	require.NoError(t, err)
	assert.Equal(t, "Retrofit", in.Title)
	assert.Equal(t, 12500.0, in.Value)
	assert.Equal(t, int64(7), in.ContactID)
	assert.Equal(t, "proposal", in.StageID)
	assert.Nil(t, in.Probability)
}

func TestDealForm_PatchOnlyChangedFields(t *testing.T) {
	stages := domain.DefaultStageRegistry()
	closeDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	orig := domain.Deal{
		ID: 1, Title: "Retrofit", Value: 40000, StageID: "proposal", Probability: 50,
		ContactID: 7, ExpectedCloseDate: &closeDate, Tags: []string{"q1"},
	}
	f := newDealForm(stages, []domain.Contact{{ID: 7, Name: "Ada"}}, &orig, orig.StageID)

	p, err := f.patch(orig)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	f.Value = "42000"
	f.CloseDate = ""
	p, err = f.patch(orig)
	require.NoError(t, err)
	require.NotNil(t, p.Value)
	assert.Equal(t, 42000.0, *p.Value)
	assert.True(t, p.ClearCloseDate)
	assert.Nil(t, p.Title)
	assert.Nil(t, p.StageID, "edits never change the stage")
}

func TestFormValidators(t *testing.T) {
	assert.NoError(t, validateMoney("1,200"))
	assert.Error(t, validateMoney("-3"))
	assert.Error(t, validateMoney(""))
	assert.NoError(t, validateProbability(""))
	assert.NoError(t, validateProbability("75%"))
	assert.Error(t, validateProbability("101"))
	assert.NoError(t, validateOptionalDate("2026-02-28"))
	assert.Error(t, validateOptionalDate("28/02/2026"))
	assert.Error(t, requiredField("title")(" "))
}
