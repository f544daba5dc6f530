package cli

import (
	"sync"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	tea "github.com/charmbracelet/bubbletea"
)

// programNotifier forwards board changes into a running tea.Program so the
// board redraws while a store call is still in flight.
type programNotifier struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (n *programNotifier) attach(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

func (n *programNotifier) emit(msg tea.Msg) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (n *programNotifier) BoardUpdated(pipeline.Snapshot)              { n.emit(boardChangedMsg{}) }
func (n *programNotifier) OperationFailed(pipeline.ErrorKind, error)   {}
func (n *programNotifier) OperationSucceeded(pipeline.Op, domain.Deal) {}

// runTUI opens the full-screen board and blocks until the user quits.
func runTUI(app *App) error {
	bridge := &programNotifier{}
	board := app.NewBoard(bridge)
	defer board.Dispose()

	p := tea.NewProgram(newAppModel(app, board), tea.WithAltScreen(), tea.WithMouseCellMotion())
	bridge.attach(p.Send)
	defer bridge.attach(nil)

	_, err := p.Run()
	return err
}
