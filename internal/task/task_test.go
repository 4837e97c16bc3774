package task

import (
	"testing"
	"time"
)

func TestCloneIsIndependent(t *testing.T) {
	start := time.Now()
	proj := int64(3)
	orig := &Task{
		ID:        1,
		Title:     "original",
		Status:    StatusOnCal,
		StartAt:   &start,
		ProjectID: &proj,
		Tags:      []int64{1, 2},
	}

	c := orig.Clone()
	c.Title = "copy"
	*c.StartAt = start.Add(time.Hour)
	*c.ProjectID = 9
	c.Tags[0] = 99

	if orig.Title != "original" {
		t.Errorf("clone mutation leaked into original title: %q", orig.Title)
	}
	if !orig.StartAt.Equal(start) {
		t.Error("clone mutation leaked into original StartAt")
	}
	if *orig.ProjectID != 3 {
		t.Errorf("clone mutation leaked into original ProjectID: %d", *orig.ProjectID)
	}
	if orig.Tags[0] != 1 {
		t.Errorf("clone mutation leaked into original Tags: %v", orig.Tags)
	}
}

func TestNewFrontendID(t *testing.T) {
	a, b := NewFrontendID(), NewFrontendID()
	if a == "" || b == "" {
		t.Fatal("empty frontend id")
	}
	if a == b {
		t.Errorf("expected unique frontend ids, got %q twice", a)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusBraindump, StatusBacklog, StatusOnBoard, StatusOnCal, StatusArchived} {
		if !s.Valid() {
			t.Errorf("%s reported invalid", s)
		}
	}
	if Status("DONE").Valid() {
		t.Error("unknown status reported valid")
	}
}
