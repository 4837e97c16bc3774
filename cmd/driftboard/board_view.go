package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/ws"
)

const colWidth = 26

var (
	colStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(colWidth).
			Padding(0, 1)

	activeColStyle = colStyle.
			BorderForeground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62"))

	doneStyle = lipgloss.NewStyle().
			Faint(true).
			Strikethrough(true)

	statusStyle = lipgloss.NewStyle().Faint(true)
)

func (m *boardModel) View() string {
	if len(m.cols) == 0 {
		return statusStyle.Render(fmt.Sprintf("connecting... (%s)", m.status))
	}

	var rendered []string
	for i, col := range m.cols {
		style := colStyle
		if i == m.col {
			style = activeColStyle
		}

		var b strings.Builder
		b.WriteString(titleStyle.Render(col.Title))
		b.WriteString("\n")
		for j, t := range col.Tasks {
			line := taskLine(t)
			if i == m.col && j == m.row && !m.editing {
				line = cursorStyle.Render(line)
			} else if t.Completed {
				line = doneStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		if len(col.Tasks) == 0 {
			b.WriteString(statusStyle.Render("—"))
			b.WriteString("\n")
		}
		rendered = append(rendered, style.Render(b.String()))
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	footer := statusBar(m.status)
	if m.toast != "" {
		footer += "  " + m.toast
	}
	if m.editing {
		footer = "new task: " + m.input.View()
	}

	return view + "\n" + statusStyle.Render(footer)
}

func taskLine(t *task.Task) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	// Truncate by rune so multi-byte titles are never split mid-character.
	title := []rune(t.Title)
	if max := colWidth - 6; len(title) > max {
		title = append(title[:max-1], '…')
	}
	return mark + " " + string(title)
}

func statusBar(status ws.Status) string {
	hint := "n:new x:del space:done [/]:move J/K:reorder +/-:window q:quit"
	if status == ws.StatusClosed {
		hint = "connection lost, press R to reconnect"
	}
	return fmt.Sprintf("%s | %s", status, hint)
}
