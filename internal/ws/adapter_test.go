package ws

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/otavio/driftboard/internal/wire"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestStatusString(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusClosed, "CLOSED"},
		{StatusConnecting, "CONNECTING"},
		{StatusOpen, "OPEN"},
		{StatusReconnecting, "RECONNECTING"},
	}
	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestNewAdapterStartsClosed(t *testing.T) {
	a := NewAdapter("ws://localhost:0/ws/tasks/", discardLogger())
	if got := a.Status(); got != StatusClosed {
		t.Errorf("initial status = %s, want CLOSED", got)
	}
}

func TestSendWhileClosedIsDropped(t *testing.T) {
	a := NewAdapter("ws://localhost:0/ws/tasks/", discardLogger())
	// Must not panic or block.
	a.Send(wire.ActionDeleteTask, int64(1))
}

func TestCloseWithoutOpen(t *testing.T) {
	a := NewAdapter("ws://localhost:0/ws/tasks/", discardLogger())
	a.Close()
	if got := a.Status(); got != StatusClosed {
		t.Errorf("status after Close = %s", got)
	}
}

func TestOpenBadURL(t *testing.T) {
	a := NewAdapter("ftp://nowhere/ws/tasks/", discardLogger())
	if err := a.Open(context.Background()); err == nil {
		t.Fatal("Open with an unsupported scheme succeeded")
	}
	if got := a.Status(); got != StatusClosed {
		t.Errorf("status after failed Open = %s", got)
	}
}

func TestStatusAnnouncementsDropOldestWhenFull(t *testing.T) {
	a := NewAdapter("ws://localhost:0/ws/tasks/", discardLogger())

	// Flip between states until well past the channel's capacity.
	states := []Status{StatusConnecting, StatusOpen, StatusReconnecting, StatusClosed}
	a.mu.Lock()
	for i := 0; i < 3*cap(a.statusCh); i++ {
		a.setStatusLocked(states[i%len(states)])
	}
	a.mu.Unlock()

	// The newest transition is never the one discarded.
	var last Status
	for {
		select {
		case last = <-a.StatusChanges():
			continue
		default:
		}
		break
	}
	if last != a.Status() {
		t.Errorf("last announced = %s, current = %s", last, a.Status())
	}
}

func TestSameStatusNotAnnounced(t *testing.T) {
	a := NewAdapter("ws://localhost:0/ws/tasks/", discardLogger())
	a.mu.Lock()
	a.setStatusLocked(StatusClosed)
	a.mu.Unlock()

	select {
	case s := <-a.StatusChanges():
		t.Errorf("announced %s for a no-op transition", s)
	default:
	}
}

// echoServer accepts one websocket client, replies to every envelope with a
// task_deleted frame carrying id 7, and keeps the connection up until the
// test ends.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		for {
			var env wire.Outbound
			if err := wsjson.Read(ctx, conn, &env); err != nil {
				return
			}
			reply := map[string]any{"type": wire.TypeTaskDeleted, "id": 7}
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenSendReceive(t *testing.T) {
	srv := echoServer(t)

	a := NewAdapter(srv.URL, discardLogger())
	if err := a.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	waitStatus(t, a, StatusConnecting)
	waitStatus(t, a, StatusOpen)

	a.Send(wire.ActionDeleteTask, int64(7))

	select {
	case msg := <-a.Inbound():
		if msg.Type != wire.TypeTaskDeleted || msg.ID != 7 {
			t.Errorf("inbound = %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no inbound frame")
	}
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	srv := echoServer(t)

	a := NewAdapter(srv.URL, discardLogger())
	if err := a.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	waitStatus(t, a, StatusConnecting)
	waitStatus(t, a, StatusOpen)

	if err := a.Open(context.Background()); err != nil {
		t.Fatalf("second Open: %v", err)
	}
	select {
	case s := <-a.StatusChanges():
		t.Errorf("second Open announced %s", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitStatus(t *testing.T, a *Adapter, want Status) {
	t.Helper()
	select {
	case got := <-a.StatusChanges():
		if got != want {
			t.Fatalf("status transition = %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no transition to %s", want)
	}
}
