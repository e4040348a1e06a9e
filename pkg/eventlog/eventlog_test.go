package eventlog

import (
	"context"
	"path/filepath"
	"testing"

	"warden/pkg/docstore"
	"warden/pkg/protocol"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	db, err := docstore.Open(filepath.Join(t.TempDir(), "state.db"), protocol.SchemaDDL)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestRecordAndQuery(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	if err := log.Record(ctx, TypeAcquire, "agent-a", "api", "building handlers"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Record(ctx, TypeRelease, "agent-a", "api", ""); err != nil {
		t.Fatalf("Record: %v", err)
	}

	events, err := log.Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	// Newest first.
	if events[0].Type != TypeRelease || events[1].Type != TypeAcquire {
		t.Errorf("order = %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Detail != "building handlers" {
		t.Errorf("detail = %q", events[1].Detail)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestQueryFilters(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	for _, e := range []struct{ typ, agent, subject string }{
		{TypeAcquire, "agent-a", "api"},
		{TypeAcquire, "agent-b", "core"},
		{TypeQueue, "agent-b", "api"},
		{TypeForceRelease, "primary", "lock-1"},
	} {
		if err := log.Record(ctx, e.typ, e.agent, e.subject, ""); err != nil {
			t.Fatal(err)
		}
	}

	byAgent, err := log.Query(ctx, QueryOpts{AgentID: "agent-b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byAgent) != 2 {
		t.Errorf("agent-b events = %d, want 2", len(byAgent))
	}

	byType, err := log.Query(ctx, QueryOpts{EventType: TypeAcquire})
	if err != nil {
		t.Fatal(err)
	}
	if len(byType) != 2 {
		t.Errorf("acquire events = %d, want 2", len(byType))
	}

	both, err := log.Query(ctx, QueryOpts{AgentID: "agent-b", EventType: TypeAcquire})
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 1 || both[0].Subject != "core" {
		t.Errorf("combined filter = %+v", both)
	}

	limited, err := log.Query(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Type != TypeForceRelease {
		t.Errorf("limited = %+v, want newest event only", limited)
	}
}

func TestQueryEmptyLog(t *testing.T) {
	log := newTestLog(t)

	events, err := log.Query(context.Background(), QueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}
