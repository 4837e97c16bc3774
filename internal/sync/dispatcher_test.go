package sync

import (
	"testing"

	"github.com/otavio/driftboard/internal/board"
	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/wire"
)

func TestCreateTaskIsOptimistic(t *testing.T) {
	store, disp, _, sender := newTestRig(t)

	fid := disp.CreateTask(&task.Task{Title: "plan sprint", Duration: "1:30"})
	if fid == "" {
		t.Fatal("no frontend id assigned")
	}

	bd := store.Tasks(board.BucketBraindump)
	if len(bd) != 1 {
		t.Fatalf("braindump has %d tasks, want 1", len(bd))
	}
	if bd[0].ID != 0 || bd[0].FrontendID != fid {
		t.Errorf("optimistic task = %+v", bd[0])
	}

	if len(sender.msgs) != 1 || sender.msgs[0].action != wire.ActionCreateTask {
		t.Fatalf("actions = %v", sender.actions())
	}
	sent := sender.msgs[0].payload.(*task.Task)
	if sent.Duration != "PT1H30M" {
		t.Errorf("wire duration = %q, want PT1H30M", sent.Duration)
	}
	if sent.Status != task.StatusBraindump {
		t.Errorf("wire status = %s", sent.Status)
	}
}

func TestDeleteTaskRemovesImmediately(t *testing.T) {
	store, disp, engine, sender := newTestRig(t)
	engine.Apply(inbound(t, wire.TypeTasksList, []*task.Task{
		{ID: 1, Status: task.StatusBacklog},
		{ID: 2, Status: task.StatusBacklog, Order: 1},
	}))
	sender.msgs = nil

	disp.DeleteTask(1)

	if store.Get(1) != nil {
		t.Error("task still present after optimistic delete")
	}
	if len(sender.msgs) != 1 || sender.msgs[0].action != wire.ActionDeleteTask {
		t.Fatalf("actions = %v", sender.actions())
	}
	if id := sender.msgs[0].payload.(int64); id != 1 {
		t.Errorf("delete payload = %v", sender.msgs[0].payload)
	}
	// Remaining task was reindexed.
	if tasks := store.Tasks(board.BucketBacklog); tasks[0].Order != 0 {
		t.Errorf("survivor order = %d", tasks[0].Order)
	}
}

func TestDeleteUnknownTaskStillSends(t *testing.T) {
	_, disp, _, sender := newTestRig(t)
	disp.DeleteTask(404)
	if len(sender.msgs) != 1 || sender.msgs[0].action != wire.ActionDeleteTask {
		t.Errorf("actions = %v", sender.actions())
	}
}

func TestMoveTaskRewritesPlacement(t *testing.T) {
	store, disp, engine, sender := newTestRig(t)
	engine.Apply(inbound(t, wire.TypeTasksList, []*task.Task{
		{ID: 1, Status: task.StatusBraindump},
	}))
	sender.msgs = nil

	disp.MoveTask(1, board.DayBucket("2024-01-03"), 0)

	moved := store.Get(1)
	if moved == nil {
		t.Fatal("task lost during move")
	}
	if moved.Status != task.StatusOnBoard || moved.ColumnDate != "2024-01-03" {
		t.Errorf("placement = %s/%s", moved.Status, moved.ColumnDate)
	}
	if len(store.Tasks(board.BucketBraindump)) != 0 {
		t.Error("task still in braindump")
	}
	if sender.msgs[len(sender.msgs)-1].action != wire.ActionUpdateTask {
		t.Errorf("actions = %v", sender.actions())
	}
}

func TestMoveToBraindumpClearsDates(t *testing.T) {
	store, disp, engine, _ := newTestRig(t)
	engine.Apply(inbound(t, wire.TypeTasksList, []*task.Task{
		{ID: 1, Status: task.StatusOnBoard, ColumnDate: "2024-01-03"},
	}))

	disp.DropToBraindump(1)

	moved := store.Get(1)
	if moved.Status != task.StatusBraindump || moved.ColumnDate != "" {
		t.Errorf("placement = %s/%q", moved.Status, moved.ColumnDate)
	}
	if moved.StartAt != nil || moved.EndAt != nil {
		t.Error("calendar times survived the drop")
	}
}

func TestReorderBucketSendsDenseOrder(t *testing.T) {
	_, disp, engine, sender := newTestRig(t)
	engine.Apply(inbound(t, wire.TypeTasksList, []*task.Task{
		{ID: 1, Status: task.StatusBacklog, Order: 3},
		{ID: 2, Status: task.StatusBacklog, Order: 7},
		{ID: 3, Status: task.StatusBacklog, Order: 9},
	}))
	sender.msgs = nil

	disp.ReorderBucket(board.BucketBacklog)

	if len(sender.msgs) != 1 || sender.msgs[0].action != wire.ActionUpdateTaskOrder {
		t.Fatalf("actions = %v", sender.actions())
	}
	tasks := sender.msgs[0].payload.([]*task.Task)
	for i, tk := range tasks {
		if tk.Order != i {
			t.Errorf("position %d has order %d", i, tk.Order)
		}
	}
}

func TestToggleCompletionFlipsLocally(t *testing.T) {
	store, disp, engine, sender := newTestRig(t)
	engine.Apply(inbound(t, wire.TypeTasksList, []*task.Task{
		{ID: 1, Status: task.StatusBacklog},
	}))
	sender.msgs = nil

	disp.ToggleCompletion(1)

	if !store.Get(1).Completed {
		t.Error("completed flag not flipped locally")
	}
	if len(sender.msgs) != 1 || sender.msgs[0].action != wire.ActionToggleCompletion {
		t.Errorf("actions = %v", sender.actions())
	}
}

func TestAssignProjectPayload(t *testing.T) {
	store, disp, engine, sender := newTestRig(t)
	engine.Apply(inbound(t, wire.TypeTasksList, []*task.Task{
		{ID: 1, Status: task.StatusBacklog},
	}))
	sender.msgs = nil

	disp.AssignProject(1, 8)

	if store.Get(1).ProjectID == nil || *store.Get(1).ProjectID != 8 {
		t.Error("project not assigned locally")
	}
	p := sender.msgs[0].payload.(wire.AssignProjectPayload)
	if p.TaskID != 1 || p.ProjectID != 8 {
		t.Errorf("payload = %+v", p)
	}
}

func TestDropToCalendarRemovesFromBoard(t *testing.T) {
	store, disp, engine, sender := newTestRig(t)
	engine.Apply(inbound(t, wire.TypeTasksList, []*task.Task{
		{ID: 1, Status: task.StatusOnBoard, ColumnDate: "2024-01-03", Duration: "0:45"},
	}))
	sender.msgs = nil

	disp.DropToCalendar(store.Get(1))

	if store.Get(1) != nil {
		t.Error("task still in store; the cal_task_updated echo puts it back")
	}
	if sender.msgs[0].action != wire.ActionDroppedToCal {
		t.Errorf("actions = %v", sender.actions())
	}
	sent := sender.msgs[0].payload.(*task.Task)
	if sent.Duration != "PT0H45M" {
		t.Errorf("wire duration = %q", sent.Duration)
	}
}

func TestExtendBackwardSkipsFetchAtBound(t *testing.T) {
	_, disp, _, sender := newTestRig(t)

	// Exhaust the backward budget (6 days to the minimum).
	if added := disp.ExtendBackward(6); added != 6 {
		t.Fatalf("ExtendBackward(6) = %d", added)
	}
	sender.msgs = nil

	if added := disp.ExtendBackward(3); added != 0 {
		t.Fatalf("ExtendBackward at bound = %d", added)
	}
	if len(sender.msgs) != 0 {
		t.Errorf("fetch sent despite empty extension: %v", sender.actions())
	}
}

func TestExtendForwardFetchesNewRange(t *testing.T) {
	_, disp, _, sender := newTestRig(t)
	disp.ExtendForward(3)

	if len(sender.msgs) != 1 || sender.msgs[0].action != wire.ActionFetchTasks {
		t.Fatalf("actions = %v", sender.actions())
	}
	p := sender.msgs[0].payload.(wire.FetchPayload)
	if p.EndDate != "2024-01-08" {
		t.Errorf("fetch end = %s, want 2024-01-08", p.EndDate)
	}
}

func TestFetchIncludesFilters(t *testing.T) {
	_, disp, _, sender := newTestRig(t)
	disp.Projects = []int64{4}
	disp.Tags = []int64{1, 2}
	disp.FetchTasks()

	p := sender.msgs[0].payload.(wire.FetchPayload)
	if len(p.Projects) != 1 || p.Projects[0] != 4 {
		t.Errorf("projects = %v", p.Projects)
	}
	if len(p.Tags) != 2 {
		t.Errorf("tags = %v", p.Tags)
	}
}
