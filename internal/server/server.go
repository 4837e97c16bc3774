// Package server implements the task channel's server side: a websocket
// endpoint that executes client actions against Postgres and pushes the
// resulting state to every connected board.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"nhooyr.io/websocket"

	"github.com/otavio/driftboard/internal/db"
	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Addr  string
	Token string // empty disables auth (local development)
	Pool  *pgxpool.Pool
	Log   *log.Logger
}

// Server is the dev task server.
type Server struct {
	addr   string
	token  string
	pool   *pgxpool.Pool
	log    *log.Logger
	hub    *Hub
	mux    *http.ServeMux
	server *http.Server
}

// New creates a server; call Start to listen.
func New(cfg Config) *Server {
	logger := cfg.Log
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		addr:  cfg.Addr,
		token: cfg.Token,
		pool:  cfg.Pool,
		log:   logger,
		hub:   NewHub(),
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET "+wire.SocketPath, s.handleSocket)
	return s
}

// Start listens until the process exits or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{Addr: s.addr, Handler: s.mux}
	s.log.Printf("driftboard server listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.Count(),
	})
}

// push is the server-to-client envelope. Deletions carry an id instead of a
// data object.
type push struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
	ID   int64  `json:"id,omitempty"`
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.URL.Query().Get("token") != s.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Printf("server: accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closing")

	c := s.hub.add()
	defer s.hub.remove(c)

	ctx := r.Context()
	go s.writeLoop(ctx, conn, c)

	sendTo(c, push{Type: wire.TypeConnected})

	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var env wire.Outbound
		if err := json.Unmarshal(frame, &env); err != nil {
			s.log.Printf("server: dropping malformed frame: %v", err)
			continue
		}
		if err := s.dispatch(c, env); err != nil {
			s.log.Printf("server: %s: %v", env.Action, err)
			sendTo(c, push{Type: wire.TypeError, Data: wire.ErrorData{Message: err.Error()}})
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.out:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// updatePayload is update_task's wire shape: a full task record plus the
// optional series scope for recurring edits.
type updatePayload struct {
	task.Task
	SeriesScope string `json:"series_scope,omitempty"`
}

func (s *Server) dispatch(c *client, env wire.Outbound) error {
	switch env.Action {
	case wire.ActionFetchTasks:
		var p wire.FetchPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding fetch payload: %w", err)
		}
		tasks, err := db.ListTasks(s.pool, p.StartDate, p.EndDate, p.Projects, p.Tags)
		if err != nil {
			return err
		}
		if tasks == nil {
			tasks = []*task.Task{}
		}
		// Lists go only to the requesting client; other boards keep
		// their own windows.
		return sendTo(c, push{Type: wire.TypeTasksList, Data: tasks})

	case wire.ActionCreateTask:
		var t task.Task
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return fmt.Errorf("decoding create payload: %w", err)
		}
		created, err := db.CreateTask(s.pool, &t)
		if err != nil {
			return err
		}
		return s.hub.Broadcast(push{Type: wire.TypeTaskCreated, Data: created})

	case wire.ActionUpdateTask:
		var p updatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding update payload: %w", err)
		}
		updated, err := db.UpdateTask(s.pool, &p.Task)
		if err != nil {
			return err
		}
		if err := s.hub.Broadcast(push{Type: wire.TypeTaskUpdated, Data: updated}); err != nil {
			return err
		}
		if p.SeriesScope == "future" && (updated.IsRecParent || updated.RecurrenceParent != nil) {
			deleted, created, err := db.RegenerateSeries(s.pool, updated.ID)
			if err != nil {
				return err
			}
			return s.hub.Broadcast(push{Type: wire.TypeRefreshForRec, Data: wire.Refresh{
				Deleted: deleted,
				Created: created,
			}})
		}
		return nil

	case wire.ActionDeleteTask:
		id, err := wire.TaskID(env.Payload)
		if err != nil {
			return err
		}
		if _, err := db.DeleteTask(s.pool, id); err != nil {
			return err
		}
		return s.hub.Broadcast(push{Type: wire.TypeTaskDeleted, ID: id})

	case wire.ActionUpdateTaskOrder:
		var tasks []*task.Task
		if err := json.Unmarshal(env.Payload, &tasks); err != nil {
			return fmt.Errorf("decoding order payload: %w", err)
		}
		// No echo: order announcements already loop between clients via
		// the update paths, and echoing here would ping-pong forever.
		return db.UpdateTaskOrder(s.pool, tasks)

	case wire.ActionDroppedToCal:
		var t task.Task
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return fmt.Errorf("decoding calendar payload: %w", err)
		}
		updated, err := db.DropToCal(s.pool, &t)
		if err != nil {
			return err
		}
		return s.hub.Broadcast(push{Type: wire.TypeCalTaskUpdated, Data: updated})

	case wire.ActionToggleCompletion:
		id, err := wire.TaskID(env.Payload)
		if err != nil {
			return err
		}
		updated, err := db.ToggleCompletion(s.pool, id)
		if err != nil {
			return err
		}
		return s.hub.Broadcast(push{Type: wire.TypeTaskUpdated, Data: updated})

	case wire.ActionAssignProject:
		var p wire.AssignProjectPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding assign payload: %w", err)
		}
		updated, err := db.AssignProject(s.pool, p.TaskID, p.ProjectID)
		if err != nil {
			return err
		}
		return s.hub.Broadcast(push{Type: wire.TypeTaskUpdated, Data: updated})

	case wire.ActionTurnOffRepeat:
		id, err := wire.TaskID(env.Payload)
		if err != nil {
			return err
		}
		updated, deleted, err := db.TurnOffRepeat(s.pool, id)
		if err != nil {
			return err
		}
		if err := s.hub.Broadcast(push{Type: wire.TypeTaskUpdated, Data: updated}); err != nil {
			return err
		}
		if len(deleted) > 0 {
			return s.hub.Broadcast(push{Type: wire.TypeRefreshForRec, Data: wire.Refresh{Deleted: deleted}})
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", env.Action)
	}
}
