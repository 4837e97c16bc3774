package sync

import (
	"context"
	"log"
	"time"

	"github.com/otavio/driftboard/internal/board"
	"github.com/otavio/driftboard/internal/ws"
)

// Session owns one authenticated connection's worth of state: the store,
// the channel adapter, the engine, and the dispatcher. A single goroutine
// consumes inbound messages, status transitions, and posted user intents,
// so no store mutation ever runs concurrently with another.
type Session struct {
	Store *board.Store

	adapter *ws.Adapter
	disp    *Dispatcher
	engine  *Engine
	log     *log.Logger

	ops     chan func(*Dispatcher)
	done    chan struct{}
	started bool
	cancel  context.CancelFunc
	loopCtx context.Context

	// OnChange fires after every event that may have mutated the store.
	// Called from the session goroutine.
	OnChange func()
}

// NewSession builds a session around a channel URL. notify receives
// server-pushed error messages for display.
func NewSession(url string, logger *log.Logger, notify Notifier) *Session {
	if logger == nil {
		logger = log.Default()
	}
	store := board.New(logger, board.NewWindow(time.Now()))
	adapter := ws.NewAdapter(url, logger)
	disp := NewDispatcher(store, adapter, logger)
	engine := NewEngine(store, disp, logger, notify)
	return &Session{
		Store:   store,
		adapter: adapter,
		disp:    disp,
		engine:  engine,
		log:     logger,
		ops:     make(chan func(*Dispatcher), 16),
		done:    make(chan struct{}),
	}
}

// Start opens the channel and runs the event loop until ctx is cancelled or
// Stop is called.
func (s *Session) Start(ctx context.Context) error {
	s.loopCtx, s.cancel = context.WithCancel(ctx)
	if err := s.adapter.Open(s.loopCtx); err != nil {
		s.cancel()
		return err
	}
	s.started = true
	go s.loop(s.loopCtx)
	return nil
}

// Reopen re-establishes the channel after the reconnect budget is spent.
// The UI calls this for a manual retry; a fresh fetch follows the OPEN
// transition as usual.
func (s *Session) Reopen() error {
	if s.loopCtx == nil {
		return nil
	}
	return s.adapter.Open(s.loopCtx)
}

// Stop closes the channel, stops the loop, and resets the store.
func (s *Session) Stop() {
	s.adapter.Close()
	if s.cancel != nil {
		s.cancel()
	}
	if s.started {
		<-s.done
	}
	s.Store.Reset()
}

// Do posts a user intent to the session loop. The function runs with
// exclusive access to the store. Once the loop has exited the intent is
// dropped rather than blocking the caller.
func (s *Session) Do(fn func(*Dispatcher)) {
	select {
	case s.ops <- fn:
	case <-s.done:
	}
}

// Status returns the channel's current status.
func (s *Session) Status() ws.Status {
	return s.adapter.Status()
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-s.adapter.StatusChanges():
			s.engine.HandleStatus(st)
			s.changed()
		case msg := <-s.adapter.Inbound():
			s.engine.Apply(msg)
			s.changed()
		case op := <-s.ops:
			op(s.disp)
			s.changed()
		}
	}
}

func (s *Session) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}
