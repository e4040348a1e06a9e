package protocol

import (
	"encoding/json"
	"time"
)

// Results are tagged objects, never errors thrown across the operation
// boundary: success carries the operation payload, failure carries a
// stable ErrorCode plus a human message and contextual fields. Every
// result marshals cleanly to JSON for the CLI dispatch surface.

// AcquireResult is returned by module lock acquisition (direct or
// delegated). On LOCK_HELD the queue fields describe the caller's newly
// recorded wait-queue entry.
type AcquireResult struct {
	Success       bool        `json:"success"`
	Type          AcquireType `json:"type,omitempty"`
	LockID        string      `json:"lock_id,omitempty"`
	Module        string      `json:"module,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	Error         ErrorCode   `json:"error,omitempty"`
	Message       string      `json:"message,omitempty"`
	CurrentHolder string      `json:"current_holder,omitempty"`
	QueueID       string      `json:"queue_id,omitempty"`
	QueuePosition int         `json:"queue_position,omitempty"`
}

// ReleaseResult is returned by module lock release. NextInQueue is
// informational only: releasing never grants the lock to a waiter.
type ReleaseResult struct {
	Success      bool        `json:"success"`
	ReleasedLock *Lock       `json:"released_lock,omitempty"`
	NextInQueue  *QueueEntry `json:"next_in_queue,omitempty"`
	Error        ErrorCode   `json:"error,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// DomainAcquireResult is returned by domain lock acquisition.
type DomainAcquireResult struct {
	Success       bool        `json:"success"`
	Type          AcquireType `json:"type,omitempty"`
	LockID        string      `json:"lock_id,omitempty"`
	Domain        string      `json:"domain,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	Error         ErrorCode   `json:"error,omitempty"`
	Message       string      `json:"message,omitempty"`
	CurrentHolder string      `json:"current_holder,omitempty"`
}

// DomainReleaseResult is returned by domain lock release.
type DomainReleaseResult struct {
	Success      bool        `json:"success"`
	ReleasedLock *DomainLock `json:"released_lock,omitempty"`
	Error        ErrorCode   `json:"error,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// ForceReleaseAudit records what a privileged force-release cleared and why.
type ForceReleaseAudit struct {
	AgentID            string       `json:"agent_id"`
	Reason             string       `json:"reason"`
	Timestamp          time.Time    `json:"timestamp"`
	ClearedModuleLocks []Lock       `json:"cleared_module_locks,omitempty"`
	ClearedDomainLocks []DomainLock `json:"cleared_domain_locks,omitempty"`
	ClearedQueueCount  int          `json:"cleared_queue_count,omitempty"`
}

// ForceReleaseResult is returned by force-release and release-all.
type ForceReleaseResult struct {
	Success bool               `json:"success"`
	Audit   *ForceReleaseAudit `json:"audit,omitempty"`
	Error   ErrorCode          `json:"error,omitempty"`
	Message string             `json:"message,omitempty"`
}

// LockStatus is an active lock plus its remaining time-to-live.
type LockStatus struct {
	Lock
	RemainingMs int64 `json:"remaining_ms"`
}

// QueueStatus is a queue entry plus its accumulated wait time and
// current 1-based position within its module's queue.
type QueueStatus struct {
	QueueEntry
	Position  int   `json:"position"`
	WaitingMs int64 `json:"waiting_ms"`
}

// DomainLockStatus is an active domain lock plus its remaining TTL.
type DomainLockStatus struct {
	DomainLock
	RemainingMs int64 `json:"remaining_ms"`
}

// StatusSnapshot is the read-only projection of the lock state.
type StatusSnapshot struct {
	Timestamp          time.Time          `json:"timestamp"`
	Locks              []LockStatus       `json:"locks"`
	Queue              []QueueStatus      `json:"queue"`
	DomainLocks        []DomainLockStatus `json:"domain_locks"`
	ModuleAvailability map[string]bool    `json:"module_availability"`
	DomainAvailability map[string]bool    `json:"domain_availability"`
}

// DeadlockResult reports whether the wait-for graph contains a cycle.
type DeadlockResult struct {
	Detected       bool     `json:"detected"`
	InvolvedAgents []string `json:"involved_agents,omitempty"`
}

// AssignmentSummary describes one subtask assignment made by AssignWorkers.
type AssignmentSummary struct {
	WorkerID   string    `json:"worker_id"`
	TaskID     string    `json:"task_id"`
	TaskName   string    `json:"task_name"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AssignResult summarizes a batch assignment.
type AssignResult struct {
	Success      bool                `json:"success"`
	ManagerID    string              `json:"manager_id"`
	Assignments  []AssignmentSummary `json:"assignments"`
	WorkerCount  int                 `json:"worker_count"`
	SubtaskCount int                 `json:"subtask_count"`
}

// BroadcastResult summarizes an advisory fan-out. No delivery guarantee
// is modeled; this is a record that a notification was issued.
type BroadcastResult struct {
	Success        bool      `json:"success"`
	ManagerID      string    `json:"manager_id"`
	Recipients     int       `json:"recipients"`
	MessagePreview string    `json:"message_preview"`
	SentAt         time.Time `json:"sent_at"`
}

// WorkerResult is one worker's reported task outcome, fed to aggregation.
type WorkerResult struct {
	WorkerID string             `json:"worker_id"`
	TaskID   string             `json:"task_id,omitempty"`
	Status   WorkerResultStatus `json:"status"`
	Output   json.RawMessage    `json:"output,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// AggregateResult classifies a batch of worker results.
type AggregateResult struct {
	Success            bool                       `json:"success"`
	ManagerID          string                     `json:"manager_id"`
	Total              int                        `json:"total"`
	Counts             map[WorkerResultStatus]int `json:"counts"`
	Successes          []WorkerResult             `json:"successes,omitempty"`
	Failures           []WorkerResult             `json:"failures,omitempty"`
	OverallStatus      WorkerResultStatus         `json:"overall_status"`
	ProgressPercentage int                        `json:"progress_percentage"`
}

// FailureResult is the coordinator's response to a reported worker failure.
type FailureResult struct {
	Success        bool          `json:"success"`
	ManagerID      string        `json:"manager_id"`
	WorkerID       string        `json:"worker_id"`
	PriorFailures  int           `json:"prior_failures"`
	Action         FailureAction `json:"action"`
	Recommendation string        `json:"recommendation"`
}

// EscalateResult snapshots an escalation plus the manager's current
// bookkeeping state for diagnostic context.
type EscalateResult struct {
	Success     bool             `json:"success"`
	Escalation  EscalationRecord `json:"escalation"`
	Manager     *ManagerRecord   `json:"manager,omitempty"`
	HistorySize int              `json:"history_size"`
}

// CompleteResult is returned by workflow completion.
type CompleteResult struct {
	Success         bool      `json:"success"`
	ManagerID       string    `json:"manager_id"`
	DurationMs      int64     `json:"duration_ms,omitempty"`
	WorkersReleased []string  `json:"workers_released,omitempty"`
	Error           ErrorCode `json:"error,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// ActiveWorker is one worker's view in the manager-status projection.
type ActiveWorker struct {
	WorkerID        string   `json:"worker_id"`
	Managers        []string `json:"managers"`
	AssignmentCount int      `json:"assignment_count"`
}

// ManagerStatusSnapshot is the read-only projection of manager bookkeeping.
type ManagerStatusSnapshot struct {
	Timestamp         time.Time          `json:"timestamp"`
	Managers          []ManagerRecord    `json:"managers"`
	Workers           []ActiveWorker     `json:"workers"`
	RecentEscalations []EscalationRecord `json:"recent_escalations"`
}
