package wire

import (
	"encoding/json"
	"testing"
)

func TestInboundDecodeTask(t *testing.T) {
	raw := []byte(`{"type":"task.created","data":{"id":7,"frontend_id":"c1","title":"write notes","status":"BRAINDUMP","order":0}}`)
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeTaskCreated {
		t.Errorf("type = %q", msg.Type)
	}
	tk, err := msg.Task()
	if err != nil {
		t.Fatal(err)
	}
	if tk.ID != 7 || tk.FrontendID != "c1" || tk.Title != "write notes" {
		t.Errorf("decoded task = %+v", tk)
	}
}

func TestInboundDeletedCarriesID(t *testing.T) {
	raw := []byte(`{"type":"task.deleted","id":42}`)
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeTaskDeleted || msg.ID != 42 {
		t.Errorf("msg = %+v", msg)
	}
}

func TestInboundRefreshPayload(t *testing.T) {
	raw := []byte(`{"type":"task.refresh_for_rec","data":{"deleted":[1,2],"created":[{"id":3,"title":"c","status":"ON_BOARD","column_date":"2024-01-03","order":0}]}}`)
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	r, err := msg.Refresh()
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Deleted) != 2 || len(r.Created) != 1 || r.Created[0].ID != 3 {
		t.Errorf("refresh = %+v", r)
	}
}

func TestNewOutboundEnvelope(t *testing.T) {
	env, err := NewOutbound(ActionDeleteTask, int64(9))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"action":"delete_task","payload":9}`
	if string(raw) != want {
		t.Errorf("envelope = %s, want %s", raw, want)
	}
}

func TestTaskIDDecodesBareID(t *testing.T) {
	id, err := TaskID(json.RawMessage(`17`))
	if err != nil {
		t.Fatal(err)
	}
	if id != 17 {
		t.Errorf("id = %d", id)
	}
	if _, err := TaskID(json.RawMessage(`{"nope":1}`)); err == nil {
		t.Error("expected error for object payload")
	}
}

func TestErrorText(t *testing.T) {
	msg := Inbound{Type: TypeError, Data: json.RawMessage(`{"message":"bad task"}`)}
	if got := msg.ErrorText(); got != "bad task" {
		t.Errorf("ErrorText = %q", got)
	}
	empty := Inbound{Type: TypeError}
	if got := empty.ErrorText(); got == "" {
		t.Error("expected fallback text for empty error body")
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{"localhost:8437", "ws://localhost:8437/ws/tasks/", false},
		{"http://example.com", "ws://example.com/ws/tasks/", false},
		{"https://tasks.example.com", "wss://tasks.example.com/ws/tasks/", false},
		{"wss://tasks.example.com", "wss://tasks.example.com/ws/tasks/", false},
		{"ftp://example.com", "", true},
	}
	for _, tt := range tests {
		got, err := SocketURL(tt.host)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SocketURL(%q) expected error", tt.host)
			}
			continue
		}
		if err != nil {
			t.Errorf("SocketURL(%q): %v", tt.host, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SocketURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
