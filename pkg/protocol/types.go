package protocol

import (
	"encoding/json"
	"time"
)

// LockOperation is the kind of access a lock grants.
type LockOperation string

// Lock operation constants.
const (
	OpRead  LockOperation = "read"
	OpWrite LockOperation = "write"
)

// AcquireType distinguishes a fresh acquisition from an idempotent
// re-acquire by the current holder.
type AcquireType string

// Acquire type constants.
const (
	AcquireNew      AcquireType = "ACQUIRED"
	AcquireExisting AcquireType = "EXISTING"
)

// WorkerResultStatus classifies a worker's reported task result.
type WorkerResultStatus string

// Worker result status constants.
const (
	StatusCompleted  WorkerResultStatus = "completed"
	StatusFailed     WorkerResultStatus = "failed"
	StatusInProgress WorkerResultStatus = "in_progress"
	StatusPending    WorkerResultStatus = "pending"
)

// FailureAction is the coordinator's recommended response to a worker failure.
type FailureAction string

// Failure action constants, in escalating order of severity.
const (
	ActionRetry    FailureAction = "retry"
	ActionReassign FailureAction = "reassign"
	ActionEscalate FailureAction = "escalate"
)

// AssignmentStatus tracks the lifecycle of a single worker assignment.
type AssignmentStatus string

// Assignment status constants.
const (
	AssignmentActive AssignmentStatus = "active"
	AssignmentFailed AssignmentStatus = "failed"
)

// EscalationStatus tracks an escalation record's lifecycle.
type EscalationStatus string

// Escalation status constants.
const (
	EscalationPending EscalationStatus = "pending"
)

// Lock is an active module lock. At most one Lock exists per module.
type Lock struct {
	LockID              string        `json:"lock_id"`
	AgentID             string        `json:"agent_id"`
	Module              string        `json:"module"`
	ModuleType          string        `json:"module_type,omitempty"`
	Operation           LockOperation `json:"operation"`
	Purpose             string        `json:"purpose,omitempty"`
	Timestamp           time.Time     `json:"timestamp"`
	EstimatedDurationMs int64         `json:"estimated_duration_ms"`
	// ManagedBy is set when a manager acquired the lock on a worker's
	// behalf. Observability only; authorization still keys off AgentID.
	ManagedBy string `json:"managed_by,omitempty"`
}

// ExpiresAt returns the absolute instant after which the expiry sweep
// treats the lock as stale: timestamp + estimated duration + grace.
func (l Lock) ExpiresAt(grace time.Duration) time.Time {
	return l.Timestamp.Add(time.Duration(l.EstimatedDurationMs)*time.Millisecond + grace)
}

// Expired reports whether the lock is past its expiry at instant now.
func (l Lock) Expired(now time.Time, grace time.Duration) bool {
	return now.After(l.ExpiresAt(grace))
}

// QueueEntry is a recorded, non-binding intent to acquire a held module.
// Entries are FIFO per module and never auto-promoted to holder.
type QueueEntry struct {
	QueueID      string        `json:"queue_id"`
	AgentID      string        `json:"agent_id"`
	Module       string        `json:"module"`
	Operation    LockOperation `json:"operation"`
	Purpose      string        `json:"purpose,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	WaitingSince time.Time     `json:"waiting_since"`
}

// DomainLock is an active lock over a domain (a category of modules).
// At most one DomainLock exists per domain.
type DomainLock struct {
	LockID              string    `json:"lock_id"`
	ManagerID           string    `json:"manager_id"`
	Domain              string    `json:"domain"`
	Timestamp           time.Time `json:"timestamp"`
	EstimatedDurationMs int64     `json:"estimated_duration_ms"`
}

// ExpiresAt returns the domain lock's absolute expiry instant.
func (l DomainLock) ExpiresAt(grace time.Duration) time.Time {
	return l.Timestamp.Add(time.Duration(l.EstimatedDurationMs)*time.Millisecond + grace)
}

// Expired reports whether the domain lock is past its expiry at instant now.
func (l DomainLock) Expired(now time.Time, grace time.Duration) bool {
	return now.After(l.ExpiresAt(grace))
}

// ManagerRecord is a manager's active bookkeeping state. Created on first
// assignment, destroyed on workflow completion. Never expires by time.
type ManagerRecord struct {
	ManagerID       string    `json:"manager_id"`
	StartedAt       time.Time `json:"started_at"`
	AssignedWorkers []string  `json:"assigned_workers"`
	SubtaskCount    int       `json:"subtask_count"`
}

// WorkerAssignment is one entry in a worker's ordered assignment list.
type WorkerAssignment struct {
	ManagerID  string           `json:"manager_id"`
	TaskID     string           `json:"task_id"`
	TaskName   string           `json:"task_name"`
	AssignedAt time.Time        `json:"assigned_at"`
	Status     AssignmentStatus `json:"status"`
}

// EscalationRecord is one entry in the capped escalation history.
type EscalationRecord struct {
	EscalationID string           `json:"escalation_id"`
	ManagerID    string           `json:"manager_id"`
	Reason       string           `json:"reason"`
	Context      string           `json:"context,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
	Status       EscalationStatus `json:"status"`
}

// LockDocument is the persisted lock state: active module locks keyed by
// module, the insertion-ordered wait queue, and active domain locks keyed
// by domain. Pure data; all behavior lives in pkg/lockmgr.
type LockDocument struct {
	Locks       map[string]Lock       `json:"locks"`
	Queue       []QueueEntry          `json:"queue"`
	DomainLocks map[string]DomainLock `json:"domain_locks"`
}

// NewLockDocument returns an empty, fully-initialized lock document.
func NewLockDocument() *LockDocument {
	return &LockDocument{
		Locks:       make(map[string]Lock),
		Queue:       nil,
		DomainLocks: make(map[string]DomainLock),
	}
}

// DecodeLockDocument parses a stored lock document body. An empty or
// corrupt body yields a fresh empty document; corruption is reported via
// the second return so callers can record a recovery event.
func DecodeLockDocument(body []byte) (*LockDocument, bool) {
	if len(body) == 0 {
		return NewLockDocument(), false
	}
	var doc LockDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return NewLockDocument(), true
	}
	if doc.Locks == nil {
		doc.Locks = make(map[string]Lock)
	}
	if doc.DomainLocks == nil {
		doc.DomainLocks = make(map[string]DomainLock)
	}
	return &doc, false
}

// QueueFor returns the queue entries for module in FIFO order.
func (d *LockDocument) QueueFor(module string) []QueueEntry {
	var entries []QueueEntry
	for _, e := range d.Queue {
		if e.Module == module {
			entries = append(entries, e)
		}
	}
	return entries
}

// ManagerDocument is the persisted manager bookkeeping state: active
// manager records, per-worker assignment lists, and the escalation ring.
type ManagerDocument struct {
	Managers    map[string]ManagerRecord      `json:"managers"`
	Assignments map[string][]WorkerAssignment `json:"assignments"`
	Escalations []EscalationRecord            `json:"escalations"`
}

// NewManagerDocument returns an empty, fully-initialized manager document.
func NewManagerDocument() *ManagerDocument {
	return &ManagerDocument{
		Managers:    make(map[string]ManagerRecord),
		Assignments: make(map[string][]WorkerAssignment),
		Escalations: nil,
	}
}

// DecodeManagerDocument parses a stored manager document body, with the
// same recovery contract as DecodeLockDocument.
func DecodeManagerDocument(body []byte) (*ManagerDocument, bool) {
	if len(body) == 0 {
		return NewManagerDocument(), false
	}
	var doc ManagerDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return NewManagerDocument(), true
	}
	if doc.Managers == nil {
		doc.Managers = make(map[string]ManagerRecord)
	}
	if doc.Assignments == nil {
		doc.Assignments = make(map[string][]WorkerAssignment)
	}
	return &doc, false
}
