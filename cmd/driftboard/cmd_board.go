package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/otavio/driftboard/internal/board"
	"github.com/otavio/driftboard/internal/sync"
	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/ws"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive kanban board",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := channelURL()
		if err != nil {
			return err
		}

		logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger := log.New(logFile, "", 0)

		var p *tea.Program
		session := sync.NewSession(url, logger, func(msg string) {
			if p != nil {
				p.Send(toastMsg(msg))
			}
		})
		m := newBoardModel(session)
		p = tea.NewProgram(m, tea.WithAltScreen())

		// Snapshots are built inside the session loop, where store access
		// is exclusive, and handed to the TUI as messages.
		session.OnChange = func() {
			p.Send(stateMsg{
				cols:   session.Store.Snapshot(time.Now()),
				status: session.Status(),
			})
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if err := session.Start(ctx); err != nil {
			return fmt.Errorf("connecting: %w", err)
		}
		defer session.Stop()

		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

type stateMsg struct {
	cols   []board.Column
	status ws.Status
}

type toastMsg string

type boardModel struct {
	session *sync.Session

	cols   []board.Column
	status ws.Status

	col, row int
	input    textinput.Model
	editing  bool
	toast    string

	width, height int
}

func newBoardModel(session *sync.Session) *boardModel {
	ti := textinput.New()
	ti.Placeholder = "task title"
	ti.CharLimit = 120
	return &boardModel{session: session, status: session.Status(), input: ti}
}

func (m *boardModel) Init() tea.Cmd {
	return nil
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case stateMsg:
		m.cols = msg.cols
		m.status = msg.status
		m.clampCursor()
		return m, nil

	case toastMsg:
		m.toast = string(msg)
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *boardModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := m.input.Value()
		m.editing = false
		m.input.Reset()
		if title != "" {
			m.session.Do(func(d *sync.Dispatcher) {
				d.CreateTask(&task.Task{Title: title})
			})
		}
		return m, nil
	case "esc":
		m.editing = false
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *boardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}
	case "right", "l":
		if m.col < len(m.cols)-1 {
			m.col++
			m.clampCursor()
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		m.row++
		m.clampCursor()

	case "n":
		m.editing = true
		m.input.Focus()
		return m, textinput.Blink

	case " ":
		if t := m.selected(); t != nil {
			id := t.ID
			m.session.Do(func(d *sync.Dispatcher) { d.ToggleCompletion(id) })
		}
	case "x":
		if t := m.selected(); t != nil {
			id := t.ID
			m.session.Do(func(d *sync.Dispatcher) { d.DeleteTask(id) })
		}
	case "b":
		if t := m.selected(); t != nil {
			id := t.ID
			m.session.Do(func(d *sync.Dispatcher) { d.DropToBraindump(id) })
		}
	case "a":
		if t := m.selected(); t != nil {
			id := t.ID
			m.session.Do(func(d *sync.Dispatcher) { d.Archive(id) })
		}

	case "]":
		m.moveSelected(1)
	case "[":
		m.moveSelected(-1)

	case "K":
		m.reorderSelected(-1)
	case "J":
		m.reorderSelected(1)

	case "+":
		m.session.Do(func(d *sync.Dispatcher) { d.ExtendForward(3) })
	case "-":
		m.session.Do(func(d *sync.Dispatcher) { d.ExtendBackward(3) })

	case "R":
		if m.status == ws.StatusClosed {
			if err := m.session.Reopen(); err != nil {
				return m, func() tea.Msg { return toastMsg(err.Error()) }
			}
		}
	}
	return m, nil
}

// moveSelected sends the task under the cursor to the adjacent column.
func (m *boardModel) moveSelected(dir int) {
	t := m.selected()
	if t == nil {
		return
	}
	target := m.col + dir
	if target < 0 || target >= len(m.cols) {
		return
	}
	id := t.ID
	key := m.cols[target].Key
	pos := len(m.cols[target].Tasks)
	m.session.Do(func(d *sync.Dispatcher) { d.MoveTask(id, key, pos) })
}

// reorderSelected swaps the task with its neighbor and announces the order.
func (m *boardModel) reorderSelected(dir int) {
	t := m.selected()
	if t == nil {
		return
	}
	tasks := m.cols[m.col].Tasks
	j := m.row + dir
	if j < 0 || j >= len(tasks) {
		return
	}
	id := t.ID
	key := m.cols[m.col].Key
	pos := j
	m.session.Do(func(d *sync.Dispatcher) { d.MoveTask(id, key, pos) })
	m.row = j
}

func (m *boardModel) selected() *task.Task {
	if m.col >= len(m.cols) {
		return nil
	}
	tasks := m.cols[m.col].Tasks
	if m.row >= len(tasks) {
		return nil
	}
	return tasks[m.row]
}

func (m *boardModel) clampCursor() {
	if len(m.cols) == 0 {
		m.col, m.row = 0, 0
		return
	}
	if m.col >= len(m.cols) {
		m.col = len(m.cols) - 1
	}
	n := len(m.cols[m.col].Tasks)
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}
