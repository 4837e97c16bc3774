// Package ws wraps a single persistent websocket connection to the task
// server behind a status machine with bounded auto-reconnect.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/otavio/driftboard/internal/wire"
)

// Status is the connection state.
type Status int

const (
	StatusClosed Status = iota
	StatusConnecting
	StatusOpen
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "CONNECTING"
	case StatusOpen:
		return "OPEN"
	case StatusReconnecting:
		return "RECONNECTING"
	default:
		return "CLOSED"
	}
}

const (
	// Reconnect policy: fixed delay, bounded retries. After the budget is
	// spent the adapter settles in CLOSED and waits for an explicit Open.
	reconnectRetries = 12
	reconnectDelay   = 5 * time.Second

	sendTimeout = 10 * time.Second
	dialTimeout = 10 * time.Second
)

// Adapter owns the connection. Inbound frames are parsed and delivered on
// Inbound(); every status transition is delivered on StatusChanges() so the
// reconciliation layer can refetch after each (re)connect.
type Adapter struct {
	url string
	log *log.Logger

	inbound  chan wire.Inbound
	statusCh chan Status

	mu     sync.Mutex
	conn   *websocket.Conn
	status Status
	closed bool // explicit Close; suppresses auto-reconnect
	cancel context.CancelFunc
}

// NewAdapter creates an adapter for the given channel URL. It does not
// connect until Open is called.
func NewAdapter(url string, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{
		url:      url,
		log:      logger,
		inbound:  make(chan wire.Inbound, 64),
		statusCh: make(chan Status, 16),
	}
}

// Inbound returns the stream of parsed server messages.
func (a *Adapter) Inbound() <-chan wire.Inbound { return a.inbound }

// StatusChanges returns the stream of status transitions.
func (a *Adapter) StatusChanges() <-chan Status { return a.statusCh }

// Status returns the current connection status.
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Open establishes the connection if it is not already up. A previously
// closed adapter can be reopened; auto-reconnect resumes with a fresh retry
// budget.
func (a *Adapter) Open(ctx context.Context) error {
	a.mu.Lock()
	if a.status == StatusOpen || a.status == StatusConnecting {
		a.mu.Unlock()
		return nil
	}
	a.closed = false
	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.setStatusLocked(StatusConnecting)
	a.mu.Unlock()

	conn, err := a.dial(loopCtx)
	if err != nil {
		a.mu.Lock()
		a.setStatusLocked(StatusClosed)
		a.mu.Unlock()
		cancel()
		return err
	}

	a.mu.Lock()
	a.conn = conn
	a.setStatusLocked(StatusOpen)
	a.mu.Unlock()

	go a.readLoop(loopCtx)
	return nil
}

// Close tears the connection down and suppresses further auto-reconnect.
func (a *Adapter) Close() {
	a.mu.Lock()
	a.closed = true
	conn := a.conn
	a.conn = nil
	cancel := a.cancel
	a.setStatusLocked(StatusClosed)
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "closing")
	}
}

// Send transmits an {action, payload} envelope. Unless the connection is
// OPEN the message is dropped and logged; nothing is queued.
func (a *Adapter) Send(action string, payload any) {
	a.mu.Lock()
	conn := a.conn
	status := a.status
	a.mu.Unlock()

	if status != StatusOpen || conn == nil {
		a.log.Printf("ws: dropping %s, connection is %s", action, status)
		return
	}

	env, err := wire.NewOutbound(action, payload)
	if err != nil {
		a.log.Printf("ws: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, env); err != nil {
		a.log.Printf("ws: sending %s: %v", action, err)
	}
}

func (a *Adapter) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, a.url, nil)
	return conn, err
}

// readLoop pumps frames until the connection dies, then hands off to the
// reconnect loop unless the adapter was explicitly closed.
func (a *Adapter) readLoop(ctx context.Context) {
	for {
		a.mu.Lock()
		conn := a.conn
		a.mu.Unlock()
		if conn == nil {
			return
		}

		_, frame, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || a.isClosed() {
				return
			}
			a.reconnect(ctx)
			return
		}

		var msg wire.Inbound
		if err := json.Unmarshal(frame, &msg); err != nil {
			a.log.Printf("ws: dropping malformed frame: %v", err)
			continue
		}
		select {
		case a.inbound <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (a *Adapter) reconnect(ctx context.Context) {
	a.mu.Lock()
	a.conn = nil
	a.setStatusLocked(StatusReconnecting)
	a.mu.Unlock()

	for attempt := 1; attempt <= reconnectRetries; attempt++ {
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return
		}
		if a.isClosed() {
			return
		}

		conn, err := a.dial(ctx)
		if err != nil {
			a.log.Printf("ws: reconnect %d/%d failed: %v", attempt, reconnectRetries, err)
			continue
		}

		a.mu.Lock()
		a.conn = conn
		a.setStatusLocked(StatusOpen)
		a.mu.Unlock()

		go a.readLoop(ctx)
		return
	}

	a.log.Printf("ws: reconnect budget exhausted, staying closed")
	a.mu.Lock()
	a.setStatusLocked(StatusClosed)
	a.mu.Unlock()
}

func (a *Adapter) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// setStatusLocked records and announces a transition. Callers hold a.mu.
// Announcements are best effort: if the consumer is not draining the channel
// the oldest transition is discarded to make room for the newest.
func (a *Adapter) setStatusLocked(s Status) {
	if a.status == s {
		return
	}
	a.status = s
	for {
		select {
		case a.statusCh <- s:
			return
		default:
			select {
			case <-a.statusCh:
			default:
			}
		}
	}
}
