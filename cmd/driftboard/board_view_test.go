package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/otavio/driftboard/internal/task"
)

func TestTaskLineMarks(t *testing.T) {
	open := taskLine(&task.Task{Title: "walk"})
	if !strings.HasPrefix(open, "[ ] ") {
		t.Errorf("open task line = %q", open)
	}
	done := taskLine(&task.Task{Title: "walk", Completed: true})
	if !strings.HasPrefix(done, "[x] ") {
		t.Errorf("completed task line = %q", done)
	}
}

func TestTaskLineTruncatesByRune(t *testing.T) {
	max := colWidth - 6
	cases := []struct {
		name  string
		title string
	}{
		{"ascii", strings.Repeat("a", max+10)},
		{"multibyte", strings.Repeat("ü", max+10)},
		{"cjk", strings.Repeat("漢", max+10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := taskLine(&task.Task{Title: tc.title})
			if !utf8.ValidString(line) {
				t.Fatalf("line is not valid UTF-8: %q", line)
			}
			got := utf8.RuneCountInString(line)
			want := len("[ ] ") + max
			if got != want {
				t.Errorf("rune length = %d, want %d", got, want)
			}
			if !strings.HasSuffix(line, "…") {
				t.Errorf("truncated line missing ellipsis: %q", line)
			}
		})
	}
}

func TestTaskLineShortTitleUntouched(t *testing.T) {
	line := taskLine(&task.Task{Title: "müsli"})
	if line != "[ ] müsli" {
		t.Errorf("line = %q", line)
	}
}
