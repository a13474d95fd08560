package wshub

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"equity-orb-lab/internal/domain"
)

func testSnapshot(symbol string, ltp float64) domain.Snapshot {
	return domain.Snapshot{
		Symbol: symbol,
		LTP:    ltp,
		Plan:   domain.PlanSnapshot{Status: string(domain.StatusIdle), Direction: string(domain.DirectionNone)},
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) domain.Snapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap domain.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return snap
}

func TestHub_BroadcastsToClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := New(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	// Registration is async; give the hub loop a moment.
	time.Sleep(50 * time.Millisecond)

	hub.Publish(testSnapshot("RELIANCE", 2901.5))

	snap := readSnapshot(t, conn)
	if snap.Symbol != "RELIANCE" || snap.LTP != 2901.5 {
		t.Errorf("got snapshot %+v", snap)
	}
	if snap.Plan.Status != "IDLE" {
		t.Errorf("plan status = %q, want IDLE", snap.Plan.Status)
	}
}

func TestHub_NewClientGetsLatestState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := New(zerolog.Nop())
	go hub.Run(ctx)

	// Published before any client connects.
	hub.Publish(testSnapshot("TCS", 4100))

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	snap := readSnapshot(t, conn)
	if snap.Symbol != "TCS" || snap.LTP != 4100 {
		t.Errorf("initial state snapshot = %+v", snap)
	}
}

func TestHub_LatestTracksNewestSnapshot(t *testing.T) {
	hub := New(zerolog.Nop())

	hub.Publish(testSnapshot("INFY", 1500))
	hub.Publish(testSnapshot("INFY", 1510))

	snap, ok := hub.Latest("INFY")
	if !ok || snap.LTP != 1510 {
		t.Errorf("Latest = %+v ok=%v, want LTP 1510", snap, ok)
	}
	if _, ok := hub.Latest("WIPRO"); ok {
		t.Error("Latest returned snapshot for unknown symbol")
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	// No Run loop draining the broadcast channel.
	hub := New(zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5000; i++ {
			hub.Publish(testSnapshot("RELIANCE", float64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked with no hub loop running")
	}
}
