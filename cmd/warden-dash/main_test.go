package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"warden/pkg/docstore"
	"warden/pkg/protocol"
)

func TestStatePathsFromEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WARDEN_HOME", home)
	t.Setenv("WARDEN_DB_PATH", "")

	if got := wardenHome(); got != home {
		t.Errorf("wardenHome = %q, want %q", got, home)
	}
	if got := stateDBPath(); got != filepath.Join(home, "state.db") {
		t.Errorf("stateDBPath = %q", got)
	}

	t.Setenv("WARDEN_DB_PATH", "/elsewhere/state.db")
	if got := stateDBPath(); got != "/elsewhere/state.db" {
		t.Errorf("stateDBPath override = %q", got)
	}
}

func TestRobotSnapshot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WARDEN_HOME", home)
	t.Setenv("WARDEN_DB_PATH", "")
	t.Setenv("WARDEN_REGISTRY_PATH", "")

	// No database yet: the robot output must fail loudly, not fabricate
	// an empty snapshot.
	if _, err := robotSnapshot(context.Background()); err == nil {
		t.Fatal("robotSnapshot succeeded without a state database")
	}

	db, err := docstore.Open(filepath.Join(home, "state.db"), protocol.SchemaDDL)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := robotSnapshot(context.Background())
	if err != nil {
		t.Fatalf("robotSnapshot: %v", err)
	}
	var out struct {
		Locks    *protocol.StatusSnapshot        `json:"locks"`
		Managers *protocol.ManagerStatusSnapshot `json:"managers"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("robot output is not JSON: %v\n%s", err, data)
	}
	if out.Locks == nil || out.Managers == nil {
		t.Errorf("snapshot sections missing: %s", data)
	}
	if len(out.Locks.Locks) != 0 {
		t.Errorf("fresh store reports locks: %+v", out.Locks.Locks)
	}
	// Availability covers the whole registry even with nothing locked.
	if !out.Locks.ModuleAvailability["api"] {
		t.Error("api not reported available in fresh store")
	}
}

func TestModelViewStates(t *testing.T) {
	m := Model{styles: newStyles(DefaultTheme())}

	if view := m.View(); view == "" {
		t.Error("loading view is empty")
	}

	m.snap = &Snapshot{
		Locks: &protocol.StatusSnapshot{
			Locks: []protocol.LockStatus{{
				Lock: protocol.Lock{
					Module:    "api",
					AgentID:   "agent-a",
					Operation: protocol.OpWrite,
					ManagedBy: "manager-backend",
				},
				RemainingMs: 90_000,
			}},
			Queue: []protocol.QueueStatus{{
				QueueEntry: protocol.QueueEntry{Module: "api", AgentID: "agent-b"},
				Position:   1,
				WaitingMs:  5_000,
			}},
		},
		Managers: &protocol.ManagerStatusSnapshot{
			Managers: []protocol.ManagerRecord{{
				ManagerID:       "manager-backend",
				AssignedWorkers: []string{"worker-1"},
				SubtaskCount:    3,
			}},
		},
	}
	view := m.View()
	for _, want := range []string{"api", "agent-a", "manager-backend", "agent-b"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
