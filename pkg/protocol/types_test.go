package protocol

import (
	"testing"
	"time"
)

func TestLockExpiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grace := 2 * time.Minute
	lock := Lock{
		Timestamp:           start,
		EstimatedDurationMs: (10 * time.Minute).Milliseconds(),
	}

	want := start.Add(12 * time.Minute)
	if got := lock.ExpiresAt(grace); !got.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", got, want)
	}
	if lock.Expired(want, grace) {
		t.Error("lock expired exactly at its boundary; expiry is strictly after")
	}
	if !lock.Expired(want.Add(time.Millisecond), grace) {
		t.Error("lock not expired past its boundary")
	}
}

func TestDecodeLockDocument(t *testing.T) {
	doc, corrupt := DecodeLockDocument(nil)
	if corrupt {
		t.Error("empty body reported corrupt")
	}
	if doc.Locks == nil || doc.DomainLocks == nil {
		t.Error("empty decode left nil maps")
	}

	doc, corrupt = DecodeLockDocument([]byte("{malformed"))
	if !corrupt {
		t.Error("malformed body not reported corrupt")
	}
	if len(doc.Locks) != 0 || len(doc.Queue) != 0 {
		t.Errorf("corrupt decode not empty: %+v", doc)
	}

	// A valid body missing optional maps is normalized, not corrupt.
	doc, corrupt = DecodeLockDocument([]byte(`{"queue":[{"queue_id":"q1","agent_id":"a","module":"api"}]}`))
	if corrupt {
		t.Error("valid partial body reported corrupt")
	}
	if doc.Locks == nil || doc.DomainLocks == nil {
		t.Error("partial decode left nil maps")
	}
	if len(doc.Queue) != 1 || doc.Queue[0].AgentID != "a" {
		t.Errorf("queue = %+v", doc.Queue)
	}
}

func TestDecodeManagerDocument(t *testing.T) {
	doc, corrupt := DecodeManagerDocument([]byte("not json at all"))
	if !corrupt {
		t.Error("malformed body not reported corrupt")
	}
	if doc.Managers == nil || doc.Assignments == nil {
		t.Error("corrupt decode left nil maps")
	}

	doc, corrupt = DecodeManagerDocument([]byte(`{"escalations":[]}`))
	if corrupt {
		t.Error("valid partial body reported corrupt")
	}
	if doc.Managers == nil || doc.Assignments == nil {
		t.Error("partial decode left nil maps")
	}
}

func TestQueueFor(t *testing.T) {
	doc := NewLockDocument()
	doc.Queue = []QueueEntry{
		{QueueID: "q1", AgentID: "a", Module: "api"},
		{QueueID: "q2", AgentID: "b", Module: "core"},
		{QueueID: "q3", AgentID: "c", Module: "api"},
	}

	entries := doc.QueueFor("api")
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// FIFO: stored order is preserved.
	if entries[0].QueueID != "q1" || entries[1].QueueID != "q3" {
		t.Errorf("order = %s, %s", entries[0].QueueID, entries[1].QueueID)
	}
	if got := doc.QueueFor("storage"); len(got) != 0 {
		t.Errorf("QueueFor(storage) = %+v, want empty", got)
	}
}
