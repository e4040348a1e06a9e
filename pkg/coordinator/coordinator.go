// Package coordinator implements manager-side bookkeeping: worker
// assignment, advisory broadcast, result aggregation, failure
// classification, escalation, and workflow completion. State lives in the
// persisted manager document; like the lock manager, every operation is a
// single compare-and-swap cycle.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"warden/pkg/docstore"
	"warden/pkg/eventlog"
	"warden/pkg/protocol"
)

const maxCASAttempts = 5

// DefaultWorker receives subtasks that name no explicit agent, unless
// overridden in Options.
const DefaultWorker = "worker-pool"

// Coordinator performs manager operations against an injected store.
type Coordinator struct {
	store         docstore.Store
	events        *eventlog.Log
	defaultWorker string
	now           func() time.Time
	newID         func() string
}

// Options tunes a Coordinator. Zero values select production defaults.
type Options struct {
	// Events receives best-effort audit records. May be nil.
	Events *eventlog.Log
	// DefaultWorker is assigned subtasks that carry no explicit agent.
	DefaultWorker string
	// Now and NewID exist for tests.
	Now   func() time.Time
	NewID func() string
}

// New creates a Coordinator over store.
func New(store docstore.Store, opts Options) *Coordinator {
	c := &Coordinator{
		store:         store,
		events:        opts.Events,
		defaultWorker: opts.DefaultWorker,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if c.defaultWorker == "" {
		c.defaultWorker = DefaultWorker
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// Subtask is one unit of work to hand to a worker.
type Subtask struct {
	TaskID string `json:"task_id,omitempty"`
	Name   string `json:"name"`
	// Agent targets a specific worker; empty selects the default worker.
	Agent string `json:"agent,omitempty"`
}

// AssignWorkers creates or reuses the manager's record and appends one
// WorkerAssignment per subtask. Purely additive: prior assignments of this
// or any other manager are never removed.
func (c *Coordinator) AssignWorkers(ctx context.Context, managerID string, subtasks []Subtask) (*protocol.AssignResult, error) {
	var result *protocol.AssignResult
	err := c.mutateManagers(ctx, func(doc *protocol.ManagerDocument) (bool, error) {
		now := c.now()

		rec, exists := doc.Managers[managerID]
		if !exists {
			rec = protocol.ManagerRecord{ManagerID: managerID, StartedAt: now}
		}

		workers := make(map[string]bool, len(rec.AssignedWorkers))
		for _, w := range rec.AssignedWorkers {
			workers[w] = true
		}

		result = &protocol.AssignResult{Success: true, ManagerID: managerID}
		touched := make(map[string]bool)
		for _, st := range subtasks {
			worker := st.Agent
			if worker == "" {
				worker = c.defaultWorker
			}
			taskID := st.TaskID
			if taskID == "" {
				taskID = c.newID()
			}

			doc.Assignments[worker] = append(doc.Assignments[worker], protocol.WorkerAssignment{
				ManagerID:  managerID,
				TaskID:     taskID,
				TaskName:   st.Name,
				AssignedAt: now,
				Status:     protocol.AssignmentActive,
			})
			workers[worker] = true
			touched[worker] = true
			rec.SubtaskCount++

			result.Assignments = append(result.Assignments, protocol.AssignmentSummary{
				WorkerID:   worker,
				TaskID:     taskID,
				TaskName:   st.Name,
				AssignedAt: now,
			})
		}

		rec.AssignedWorkers = sortedSet(workers)
		doc.Managers[managerID] = rec

		result.WorkerCount = len(touched)
		result.SubtaskCount = rec.SubtaskCount
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	c.logEvent(ctx, eventlog.TypeAssign, managerID, "",
		fmt.Sprintf("%d subtasks across %d workers", len(result.Assignments), result.WorkerCount))
	return result, nil
}

// Broadcast records an advisory fan-out to workers. No delivery guarantee
// is modeled and no state changes; the summary carries a truncated preview
// of the message and the recipient count.
func (c *Coordinator) Broadcast(ctx context.Context, managerID string, workerIDs []string, message string) (*protocol.BroadcastResult, error) {
	preview := message
	if runes := []rune(message); len(runes) > protocol.BroadcastPreviewLen {
		preview = string(runes[:protocol.BroadcastPreviewLen])
	}
	result := &protocol.BroadcastResult{
		Success:        true,
		ManagerID:      managerID,
		Recipients:     len(workerIDs),
		MessagePreview: preview,
		SentAt:         c.now(),
	}
	c.logEvent(ctx, eventlog.TypeBroadcast, managerID, "",
		fmt.Sprintf("%d recipients: %s", len(workerIDs), preview))
	return result, nil
}

// Aggregate classifies a batch of worker results. Overall status, in
// priority order: any failed -> failed; else all completed -> completed;
// else any in_progress -> in_progress; else pending. Progress is
// round(100 * completed / total), 0 when total is 0.
func (c *Coordinator) Aggregate(managerID string, results []protocol.WorkerResult) *protocol.AggregateResult {
	agg := &protocol.AggregateResult{
		Success:   true,
		ManagerID: managerID,
		Total:     len(results),
		Counts:    make(map[protocol.WorkerResultStatus]int),
	}
	for _, r := range results {
		agg.Counts[r.Status]++
		switch r.Status {
		case protocol.StatusCompleted:
			agg.Successes = append(agg.Successes, r)
		case protocol.StatusFailed:
			agg.Failures = append(agg.Failures, r)
		}
	}

	completed := agg.Counts[protocol.StatusCompleted]
	switch {
	case agg.Counts[protocol.StatusFailed] > 0:
		agg.OverallStatus = protocol.StatusFailed
	case agg.Total > 0 && completed == agg.Total:
		agg.OverallStatus = protocol.StatusCompleted
	case agg.Counts[protocol.StatusInProgress] > 0:
		agg.OverallStatus = protocol.StatusInProgress
	default:
		agg.OverallStatus = protocol.StatusPending
	}

	if agg.Total > 0 {
		agg.ProgressPercentage = int(math.Round(100 * float64(completed) / float64(agg.Total)))
	}
	return agg
}

// FailureInfo describes a reported worker failure.
type FailureInfo struct {
	Critical bool   `json:"critical,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

// critical reports whether the failure demands immediate escalation.
func (f FailureInfo) critical() bool {
	return f.Critical || f.Severity == "critical"
}

// HandleWorkerFailure classifies a worker failure and records it against
// the worker's most recent active assignment. Policy, in order of
// precedence: critical failures escalate regardless of history; a worker
// with two or more prior failed assignments is reassigned; otherwise retry.
func (c *Coordinator) HandleWorkerFailure(ctx context.Context, managerID, workerID string, failure FailureInfo) (*protocol.FailureResult, error) {
	var result *protocol.FailureResult
	err := c.mutateManagers(ctx, func(doc *protocol.ManagerDocument) (bool, error) {
		assignments := doc.Assignments[workerID]

		prior := 0
		for _, a := range assignments {
			if a.Status == protocol.AssignmentFailed {
				prior++
			}
		}

		var action protocol.FailureAction
		var recommendation string
		switch {
		case failure.critical():
			action = protocol.ActionEscalate
			recommendation = fmt.Sprintf(
				"critical failure from %s; escalate to the primary coordinator immediately", workerID)
		case prior >= 2:
			action = protocol.ActionReassign
			recommendation = fmt.Sprintf(
				"%s has %d prior failures; reassign its tasks to another worker", workerID, prior)
		default:
			action = protocol.ActionRetry
			recommendation = fmt.Sprintf(
				"transient failure from %s; retry the task on the same worker", workerID)
		}

		result = &protocol.FailureResult{
			Success:        true,
			ManagerID:      managerID,
			WorkerID:       workerID,
			PriorFailures:  prior,
			Action:         action,
			Recommendation: recommendation,
		}

		// Mark the most recent active assignment failed so the policy
		// sees this failure on the next report.
		for i := len(assignments) - 1; i >= 0; i-- {
			if assignments[i].Status == protocol.AssignmentActive {
				assignments[i].Status = protocol.AssignmentFailed
				doc.Assignments[workerID] = assignments
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	c.logEvent(ctx, eventlog.TypeFailure, workerID, managerID,
		fmt.Sprintf("action=%s prior_failures=%d: %s", result.Action, result.PriorFailures, failure.Message))
	return result, nil
}

// EscalateToPrimary appends an escalation to the capped ring buffer
// (oldest evicted first) and snapshots the manager's bookkeeping for
// diagnostic context.
func (c *Coordinator) EscalateToPrimary(ctx context.Context, managerID, reason, detail string) (*protocol.EscalateResult, error) {
	var result *protocol.EscalateResult
	err := c.mutateManagers(ctx, func(doc *protocol.ManagerDocument) (bool, error) {
		record := protocol.EscalationRecord{
			EscalationID: c.newID(),
			ManagerID:    managerID,
			Reason:       reason,
			Context:      detail,
			Timestamp:    c.now(),
			Status:       protocol.EscalationPending,
		}
		doc.Escalations = append(doc.Escalations, record)
		if over := len(doc.Escalations) - protocol.EscalationHistoryCap; over > 0 {
			doc.Escalations = append([]protocol.EscalationRecord(nil), doc.Escalations[over:]...)
		}

		result = &protocol.EscalateResult{
			Success:     true,
			Escalation:  record,
			HistorySize: len(doc.Escalations),
		}
		if rec, ok := doc.Managers[managerID]; ok {
			result.Manager = &rec
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	c.logEvent(ctx, eventlog.TypeEscalation, managerID, result.Escalation.EscalationID, reason)
	return result, nil
}

// CompleteWorkflow removes the manager's record, prunes its assignments
// from every worker it touched, and deletes workers left with no
// assignments. There is no time-based expiry for manager bookkeeping; this
// explicit completion is the only way a manager leaves the document.
func (c *Coordinator) CompleteWorkflow(ctx context.Context, managerID string) (*protocol.CompleteResult, error) {
	var result *protocol.CompleteResult
	err := c.mutateManagers(ctx, func(doc *protocol.ManagerDocument) (bool, error) {
		rec, exists := doc.Managers[managerID]
		if !exists {
			result = &protocol.CompleteResult{
				Success:   false,
				ManagerID: managerID,
				Error:     protocol.ErrManagerNotFound,
				Message:   fmt.Sprintf("manager %s has no active workflow", managerID),
			}
			return false, nil
		}

		result = &protocol.CompleteResult{
			Success:    true,
			ManagerID:  managerID,
			DurationMs: c.now().Sub(rec.StartedAt).Milliseconds(),
		}
		delete(doc.Managers, managerID)

		for worker, assignments := range doc.Assignments {
			kept := assignments[:0]
			pruned := false
			for _, a := range assignments {
				if a.ManagerID == managerID {
					pruned = true
					continue
				}
				kept = append(kept, a)
			}
			if !pruned {
				continue
			}
			result.WorkersReleased = append(result.WorkersReleased, worker)
			if len(kept) == 0 {
				delete(doc.Assignments, worker)
			} else {
				doc.Assignments[worker] = kept
			}
		}
		sort.Strings(result.WorkersReleased)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Success {
		c.logEvent(ctx, eventlog.TypeComplete, managerID, "",
			fmt.Sprintf("duration_ms=%d workers_released=%d", result.DurationMs, len(result.WorkersReleased)))
	}
	return result, nil
}

// ManagerStatus builds the read-only projection: active managers, active
// workers with their distinct manager sets, and the most recent
// escalations, newest first.
func (c *Coordinator) ManagerStatus(ctx context.Context) (*protocol.ManagerStatusSnapshot, error) {
	stored, err := c.store.Load(ctx, protocol.DocManagers)
	if err != nil {
		return nil, err
	}
	doc, _ := protocol.DecodeManagerDocument(stored.Body)

	snap := &protocol.ManagerStatusSnapshot{Timestamp: c.now()}

	for _, id := range sortedDocKeys(doc.Managers) {
		snap.Managers = append(snap.Managers, doc.Managers[id])
	}

	for _, worker := range sortedDocKeys(doc.Assignments) {
		assignments := doc.Assignments[worker]
		managers := make(map[string]bool)
		for _, a := range assignments {
			managers[a.ManagerID] = true
		}
		snap.Workers = append(snap.Workers, protocol.ActiveWorker{
			WorkerID:        worker,
			Managers:        sortedSet(managers),
			AssignmentCount: len(assignments),
		})
	}

	// Most recent first, capped.
	for i := len(doc.Escalations) - 1; i >= 0 && len(snap.RecentEscalations) < protocol.RecentEscalationCount; i-- {
		snap.RecentEscalations = append(snap.RecentEscalations, doc.Escalations[i])
	}
	return snap, nil
}

// mutateManagers mirrors lockmgr's CAS loop for the manager document.
func (c *Coordinator) mutateManagers(ctx context.Context, fn func(doc *protocol.ManagerDocument) (bool, error)) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		stored, err := c.store.Load(ctx, protocol.DocManagers)
		if err != nil {
			return err
		}
		doc, corrupt := protocol.DecodeManagerDocument(stored.Body)
		if corrupt {
			c.logEvent(ctx, eventlog.TypeDocRecovered, "", protocol.DocManagers, "corrupt document reset to empty")
		}

		changed, err := fn(doc)
		if err != nil {
			return err
		}
		if !changed && !corrupt {
			return nil
		}

		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode manager document: %w", err)
		}
		ok, err := c.store.CompareAndSwap(ctx, protocol.DocManagers, stored.Version, body)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return protocol.ErrStoreContention
}

func (c *Coordinator) logEvent(ctx context.Context, typ, agentID, subject, detail string) {
	if c.events == nil {
		return
	}
	_ = c.events.Record(ctx, typ, agentID, subject, detail)
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedDocKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
