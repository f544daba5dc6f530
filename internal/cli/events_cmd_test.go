package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/dealflow/internal/config"
	"github.com/alexanderramin/dealflow/internal/events"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	server, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(server.Shutdown)
	return server
}

// lockedBuffer lets the tail goroutine write while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTailEvents_PrintsBoardOperations(t *testing.T) {
	server := startTestNATSServer(t)
	app := testApp(t)
	_, deals := seedPipeline(t, app)

	pubConn, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(pubConn.Close)
	publisher := events.NewPublisher(pubConn, "crm", nil)

	tailConn, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(tailConn.Close)

	ctx, cancel := context.WithCancel(context.Background())
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() { done <- tailEvents(ctx, tailConn, "crm", out) }()
	require.Eventually(t, func() bool { return server.NumSubscriptions() > 0 }, 2*time.Second, 10*time.Millisecond)

	board := app.NewBoard(publisher)
	require.NoError(t, board.Load(ctx))
	require.True(t, board.BeginDrag(deals[0].ID))
	outcome, err := board.Drop(ctx, "negotiation")
	require.NoError(t, err)
	require.Equal(t, pipeline.OutcomeMoved, outcome)
	require.NoError(t, publisher.Flush())

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(plain(out.String())), []byte("Website rebuild"))
	}, 2*time.Second, 10*time.Millisecond)
	line := plain(out.String())
	assert.Contains(t, line, "deal.stage_changed")
	assert.Contains(t, line, "negotiation 75%")
	assert.NotContains(t, line, "board.updated", "tail only follows deal subjects")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tail did not stop")
	}
}

func TestFormatEvent_Failure(t *testing.T) {
	line := plain(formatEvent(events.Message{
		Subject: "dealflow.deal.failed",
		Event: events.DealEvent{
			Op: "stage_changed", DealID: 9, Kind: "StoreFailure", Error: "connection reset",
			At: time.Date(2026, 2, 7, 12, 0, 0, 0, time.Local),
		},
	}))
	assert.Equal(t, "12:00:00 deal.failed stage_changed deal #9 StoreFailure: connection reset", line)
}

func TestFormatEvent_Deal(t *testing.T) {
	line := plain(formatEvent(events.Message{
		Subject: "crm.deal.created",
		Event: events.DealEvent{
			Op:   "created",
			Deal: &recordstore.DealRecord{ID: 4, Title: "Audit", Value: 900, Stage: "lead", Probability: 10},
			At:   time.Date(2026, 2, 7, 9, 30, 0, 0, time.Local),
		},
	}))
	assert.Equal(t, "09:30:00 deal.created #4 Audit  $900  lead 10%", line)
}

func TestEventsTail_NoBusConfigured(t *testing.T) {
	app := testApp(t)
	cfg := config.Default()
	cfg.Events.NATSURL = ""
	app.Config = &cfg

	_, err := executeCmd(t, app, "events", "tail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event bus configured")
}
