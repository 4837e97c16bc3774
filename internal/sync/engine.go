package sync

import (
	"log"

	"github.com/otavio/driftboard/internal/board"
	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/wire"
	"github.com/otavio/driftboard/internal/ws"
)

// Notifier surfaces server-pushed errors to whatever UI is attached.
type Notifier func(message string)

// Engine applies inbound channel messages to the store. There is no partial
// resync protocol: any transition to OPEN is treated as a potential full
// desync and answered with a fresh fetch.
type Engine struct {
	store  *board.Store
	disp   *Dispatcher
	log    *log.Logger
	notify Notifier

	// fetched records that the current connection already got its post-OPEN
	// fetch, so the server's connected greeting does not request a second one.
	fetched bool
}

// NewEngine builds an engine over the given store and dispatcher.
func NewEngine(store *board.Store, disp *Dispatcher, logger *log.Logger, notify Notifier) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &Engine{store: store, disp: disp, log: logger, notify: notify}
}

// HandleStatus reacts to connection transitions. Each OPEN, initial connect
// and reconnect alike, triggers a full list request before any other inbound
// message is treated as authoritative.
func (e *Engine) HandleStatus(s ws.Status) {
	if s == ws.StatusOpen {
		e.disp.FetchTasks()
		e.fetched = true
		return
	}
	e.fetched = false
}

// Apply merges one inbound message into the store.
func (e *Engine) Apply(msg wire.Inbound) {
	switch msg.Type {
	case wire.TypeConnected:
		if !e.fetched {
			e.disp.FetchTasks()
			e.fetched = true
		}

	case wire.TypeFullRefresh:
		e.disp.FetchTasks()

	case wire.TypeTasksList:
		list, err := msg.TaskList()
		if err != nil {
			e.log.Printf("sync: %v", err)
			return
		}
		e.store.ReplaceAll(list)

	case wire.TypeTaskCreated:
		e.applyCreated(msg)

	case wire.TypeTaskUpdated, wire.TypeTaskUpdatedLegacy:
		e.applyUpdated(msg)

	case wire.TypeCalTaskUpdated:
		e.applyUpdated(msg)

	case wire.TypeTaskDeleted:
		// Idempotent: a miss means the optimistic delete already ran.
		if key, ok := e.store.BucketOf(msg.ID); ok {
			e.store.Remove(msg.ID)
			e.store.Reindex(key)
		}

	case wire.TypeRefreshForRec:
		e.applyRefresh(msg)

	case wire.TypeError:
		e.log.Printf("sync: server error: %s", msg.ErrorText())
		e.notify(msg.ErrorText())

	default:
		e.log.Printf("sync: unhandled message type %q", msg.Type)
	}
}

// applyCreated replaces the optimistic placeholder with the authoritative
// record: purge by frontend id first, then insert by server id, then
// re-announce the bucket's order so concurrent clients converge.
func (e *Engine) applyCreated(msg wire.Inbound) {
	t, err := msg.Task()
	if err != nil {
		e.log.Printf("sync: %v", err)
		return
	}
	if t.Status != task.StatusBraindump {
		e.log.Printf("sync: task %d created with status %s, expected %s; ignoring",
			t.ID, t.Status, task.StatusBraindump)
		return
	}
	e.store.RemoveByFrontendID(t.FrontendID)
	t.Order = 0
	e.store.Upsert(board.BucketBraindump, t)
	e.disp.ReorderBucket(board.BucketBraindump)
}

func (e *Engine) applyUpdated(msg wire.Inbound) {
	t, err := msg.Task()
	if err != nil {
		e.log.Printf("sync: %v", err)
		return
	}
	// Upsert keeps the bucket the task left dense, including when the new
	// placement falls outside the window and the insert is refused.
	key := e.store.BucketFor(t)
	if !e.store.Upsert(key, t) {
		return
	}
	e.disp.ReorderBucket(key)
}

// applyRefresh handles a regenerated recurring series. Deletions run before
// insertions so overlapping ids never exist in two buckets at once.
func (e *Engine) applyRefresh(msg wire.Inbound) {
	r, err := msg.Refresh()
	if err != nil {
		e.log.Printf("sync: %v", err)
		return
	}
	touched := make(map[board.BucketKey]bool)
	for _, id := range r.Deleted {
		if key, ok := e.store.BucketOf(id); ok {
			e.store.Remove(id)
			touched[key] = true
		}
	}
	for _, t := range r.Created {
		key := e.store.BucketFor(t)
		t.Order = -1 // append
		if e.store.Upsert(key, t) {
			touched[key] = true
		}
	}
	for key := range touched {
		e.disp.ReorderBucket(key)
	}
}
