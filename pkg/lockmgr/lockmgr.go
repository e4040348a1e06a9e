// Package lockmgr implements cooperative module and domain locking over
// the document store: acquisition, release, delegated acquisition, lazy
// expiry sweeping, and the privileged force-release escape hatch.
//
// Every operation is one read -> validate -> mutate -> compare-and-swap
// cycle. There is no long-lived state in this package; everything lives in
// the persisted lock document.
package lockmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"warden/pkg/docstore"
	"warden/pkg/eventlog"
	"warden/pkg/protocol"
	"warden/pkg/registry"
)

// maxCASAttempts bounds the optimistic retry loop before an operation
// reports store contention.
const maxCASAttempts = 5

// DefaultEstimatedDuration is assumed when an acquire request carries no
// estimate. Expiry is always estimate + grace.
const DefaultEstimatedDuration = 30 * time.Minute

// Manager performs lock operations against an injected store and registry.
type Manager struct {
	store  docstore.Store
	reg    *registry.Registry
	events *eventlog.Log
	grace  time.Duration
	now    func() time.Time
	newID  func() string
}

// Options tunes a Manager. Zero values select production defaults.
type Options struct {
	// Grace extends every lock's estimated duration before the sweep
	// considers it expired. Defaults to protocol.DefaultGracePeriod.
	Grace time.Duration
	// Events receives best-effort audit records. May be nil.
	Events *eventlog.Log
	// Now and NewID exist for tests.
	Now   func() time.Time
	NewID func() string
}

// New creates a Manager over store and reg.
func New(store docstore.Store, reg *registry.Registry, opts Options) *Manager {
	m := &Manager{
		store:  store,
		reg:    reg,
		events: opts.Events,
		grace:  opts.Grace,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if m.grace <= 0 {
		m.grace = protocol.DefaultGracePeriod
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// AcquireRequest describes a module lock acquisition.
type AcquireRequest struct {
	AgentID           string
	ModuleRef         string
	Operation         protocol.LockOperation
	EstimatedDuration time.Duration
	Purpose           string

	// managedBy tags delegated acquisitions; set via AcquireOnBehalf.
	managedBy string
}

// Acquire attempts to take a module lock for an agent. Outcomes:
//   - UNKNOWN_MODULE: the reference resolves to no registered module.
//   - PRIMARY_ONLY: the module is reserved for the primary coordinator.
//   - EXISTING: the caller already holds the lock (idempotent, no new record).
//   - LOCK_HELD: another agent holds it; the caller is appended to the wait
//     queue and told its 1-based position. Queueing is observational only.
//   - ACQUIRED: a new lock was created; any stale queue entries the caller
//     had for this module are dropped as satisfied.
func (m *Manager) Acquire(ctx context.Context, req AcquireRequest) (*protocol.AcquireResult, error) {
	name, info, ok := m.reg.Resolve(req.ModuleRef)
	if !ok {
		return &protocol.AcquireResult{
			Success: false,
			Error:   protocol.ErrUnknownModule,
			Message: fmt.Sprintf("module %q is not in the registry", req.ModuleRef),
		}, nil
	}
	if info.PrimaryOnly && !m.reg.IsPrimary(req.AgentID) {
		return &protocol.AcquireResult{
			Success: false,
			Error:   protocol.ErrPrimaryOnly,
			Module:  name,
			Message: fmt.Sprintf("module %q may only be locked by the primary coordinator", name),
		}, nil
	}

	op := req.Operation
	if op == "" {
		op = protocol.OpWrite
	}
	dur := req.EstimatedDuration
	if dur <= 0 {
		dur = DefaultEstimatedDuration
	}

	var result *protocol.AcquireResult
	err := m.mutateLocks(ctx, func(doc *protocol.LockDocument) (bool, error) {
		now := m.now()
		changed := m.sweep(ctx, doc, now)

		if held, exists := doc.Locks[name]; exists {
			if held.AgentID == req.AgentID {
				exp := held.ExpiresAt(m.grace)
				result = &protocol.AcquireResult{
					Success:   true,
					Type:      protocol.AcquireExisting,
					LockID:    held.LockID,
					Module:    name,
					ExpiresAt: &exp,
				}
				return changed, nil
			}

			entry := protocol.QueueEntry{
				QueueID:      m.newID(),
				AgentID:      req.AgentID,
				Module:       name,
				Operation:    op,
				Purpose:      req.Purpose,
				Timestamp:    now,
				WaitingSince: now,
			}
			doc.Queue = append(doc.Queue, entry)
			result = &protocol.AcquireResult{
				Success:       false,
				Error:         protocol.ErrLockHeld,
				Module:        name,
				CurrentHolder: held.AgentID,
				QueueID:       entry.QueueID,
				QueuePosition: len(doc.QueueFor(name)),
				Message:       fmt.Sprintf("module %q is locked by %s; queued", name, held.AgentID),
			}
			return true, nil
		}

		lock := protocol.Lock{
			LockID:              m.newID(),
			AgentID:             req.AgentID,
			Module:              name,
			ModuleType:          info.Type,
			Operation:           op,
			Purpose:             req.Purpose,
			Timestamp:           now,
			EstimatedDurationMs: dur.Milliseconds(),
			ManagedBy:           req.managedBy,
		}
		doc.Locks[name] = lock
		doc.Queue = dropQueueEntries(doc.Queue, req.AgentID, name)

		exp := lock.ExpiresAt(m.grace)
		result = &protocol.AcquireResult{
			Success:   true,
			Type:      protocol.AcquireNew,
			LockID:    lock.LockID,
			Module:    name,
			ExpiresAt: &exp,
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.Success && result.Type == protocol.AcquireNew:
		m.logEvent(ctx, eventlog.TypeAcquire, req.AgentID, name, req.Purpose)
	case result.Error == protocol.ErrLockHeld:
		m.logEvent(ctx, eventlog.TypeQueue, req.AgentID, name,
			fmt.Sprintf("position %d behind %s", result.QueuePosition, result.CurrentHolder))
	}
	return result, nil
}

// ReleaseRequest locates a lock by LockID when set, otherwise by
// (resolved module, agent).
type ReleaseRequest struct {
	AgentID   string
	ModuleRef string
	LockID    string
}

// Release removes a module lock. Only the lock's own agent or the primary
// coordinator may release. The next queued entry is reported
// informationally; it is NOT granted the lock.
func (m *Manager) Release(ctx context.Context, req ReleaseRequest) (*protocol.ReleaseResult, error) {
	var result *protocol.ReleaseResult
	err := m.mutateLocks(ctx, func(doc *protocol.LockDocument) (bool, error) {
		changed := m.sweep(ctx, doc, m.now())

		module, lock, found := findLock(doc, req)
		if !found {
			result = &protocol.ReleaseResult{
				Success: false,
				Error:   protocol.ErrLockNotFound,
				Message: "no matching active lock",
			}
			return changed, nil
		}
		if lock.AgentID != req.AgentID && !m.reg.IsPrimary(req.AgentID) {
			result = &protocol.ReleaseResult{
				Success: false,
				Error:   protocol.ErrPermissionDenied,
				Message: fmt.Sprintf("lock on %q belongs to %s", module, lock.AgentID),
			}
			return changed, nil
		}

		delete(doc.Locks, module)
		result = &protocol.ReleaseResult{Success: true, ReleasedLock: &lock}
		if waiting := doc.QueueFor(module); len(waiting) > 0 {
			next := waiting[0]
			result.NextInQueue = &next
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Success {
		m.logEvent(ctx, eventlog.TypeRelease, req.AgentID, result.ReleasedLock.Module, "")
	}
	return result, nil
}

// AcquireOptions carries the optional parameters of a delegated acquire.
type AcquireOptions struct {
	Operation         protocol.LockOperation
	EstimatedDuration time.Duration
	Purpose           string
}

// AcquireOnBehalf lets a manager take a module lock for a worker it
// governs. Managers may never touch primary-only modules, checked before
// delegating into the normal acquire path under the worker's identity.
// The resulting lock is tagged with the manager id for observability.
func (m *Manager) AcquireOnBehalf(ctx context.Context, managerID, workerID, moduleRef string, opts AcquireOptions) (*protocol.AcquireResult, error) {
	name, info, ok := m.reg.Resolve(moduleRef)
	if !ok {
		return &protocol.AcquireResult{
			Success: false,
			Error:   protocol.ErrUnknownModule,
			Message: fmt.Sprintf("module %q is not in the registry", moduleRef),
		}, nil
	}
	if info.PrimaryOnly {
		return &protocol.AcquireResult{
			Success: false,
			Error:   protocol.ErrManagerNotAuthorized,
			Module:  name,
			Message: fmt.Sprintf("managers may not acquire primary-only module %q", name),
		}, nil
	}
	return m.Acquire(ctx, AcquireRequest{
		AgentID:           workerID,
		ModuleRef:         name,
		Operation:         opts.Operation,
		EstimatedDuration: opts.EstimatedDuration,
		Purpose:           opts.Purpose,
		managedBy:         managerID,
	})
}

// AcquireDomain takes a domain lock for an authorized manager. Domains use
// the same sweep and mutual-exclusion pattern as modules, but authorization
// is keyed by the domain's authorized-manager set.
func (m *Manager) AcquireDomain(ctx context.Context, managerID, domain string, estimated time.Duration) (*protocol.DomainAcquireResult, error) {
	if _, ok := m.reg.Domain(domain); !ok {
		return &protocol.DomainAcquireResult{
			Success: false,
			Error:   protocol.ErrInvalidDomain,
			Message: fmt.Sprintf("domain %q is not in the registry", domain),
		}, nil
	}
	if !m.reg.IsAuthorizedManager(domain, managerID) {
		return &protocol.DomainAcquireResult{
			Success: false,
			Error:   protocol.ErrUnauthorizedManager,
			Domain:  domain,
			Message: fmt.Sprintf("%s is not an authorized manager for domain %q", managerID, domain),
		}, nil
	}
	if estimated <= 0 {
		estimated = DefaultEstimatedDuration
	}

	var result *protocol.DomainAcquireResult
	err := m.mutateLocks(ctx, func(doc *protocol.LockDocument) (bool, error) {
		now := m.now()
		changed := m.sweep(ctx, doc, now)

		if held, exists := doc.DomainLocks[domain]; exists {
			if held.ManagerID == managerID {
				exp := held.ExpiresAt(m.grace)
				result = &protocol.DomainAcquireResult{
					Success:   true,
					Type:      protocol.AcquireExisting,
					LockID:    held.LockID,
					Domain:    domain,
					ExpiresAt: &exp,
				}
				return changed, nil
			}
			result = &protocol.DomainAcquireResult{
				Success:       false,
				Error:         protocol.ErrDomainLocked,
				Domain:        domain,
				CurrentHolder: held.ManagerID,
				Message:       fmt.Sprintf("domain %q is locked by %s", domain, held.ManagerID),
			}
			return changed, nil
		}

		lock := protocol.DomainLock{
			LockID:              m.newID(),
			ManagerID:           managerID,
			Domain:              domain,
			Timestamp:           now,
			EstimatedDurationMs: estimated.Milliseconds(),
		}
		doc.DomainLocks[domain] = lock
		exp := lock.ExpiresAt(m.grace)
		result = &protocol.DomainAcquireResult{
			Success:   true,
			Type:      protocol.AcquireNew,
			LockID:    lock.LockID,
			Domain:    domain,
			ExpiresAt: &exp,
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Success && result.Type == protocol.AcquireNew {
		m.logEvent(ctx, eventlog.TypeDomainLock, managerID, domain, "")
	}
	return result, nil
}

// ReleaseDomain releases a domain lock held by managerID.
func (m *Manager) ReleaseDomain(ctx context.Context, managerID, domain string) (*protocol.DomainReleaseResult, error) {
	if _, ok := m.reg.Domain(domain); !ok {
		return &protocol.DomainReleaseResult{
			Success: false,
			Error:   protocol.ErrInvalidDomain,
			Message: fmt.Sprintf("domain %q is not in the registry", domain),
		}, nil
	}

	var result *protocol.DomainReleaseResult
	err := m.mutateLocks(ctx, func(doc *protocol.LockDocument) (bool, error) {
		changed := m.sweep(ctx, doc, m.now())

		held, exists := doc.DomainLocks[domain]
		if !exists || held.ManagerID != managerID {
			result = &protocol.DomainReleaseResult{
				Success: false,
				Error:   protocol.ErrLockNotFound,
				Message: fmt.Sprintf("no domain lock on %q held by %s", domain, managerID),
			}
			return changed, nil
		}
		delete(doc.DomainLocks, domain)
		result = &protocol.DomainReleaseResult{Success: true, ReleasedLock: &held}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Success {
		m.logEvent(ctx, eventlog.TypeDomainUnlock, managerID, domain, "")
	}
	return result, nil
}

// ForceRelease removes a single lock (module or domain) by lock id,
// bypassing holder authorization. Restricted to the primary coordinator;
// used to break deadlocks. Produces an audit record.
func (m *Manager) ForceRelease(ctx context.Context, agentID, targetLockID, reason string) (*protocol.ForceReleaseResult, error) {
	if !m.reg.IsPrimary(agentID) {
		return &protocol.ForceReleaseResult{
			Success: false,
			Error:   protocol.ErrPermissionDenied,
			Message: "force-release is restricted to the primary coordinator",
		}, nil
	}

	var result *protocol.ForceReleaseResult
	err := m.mutateLocks(ctx, func(doc *protocol.LockDocument) (bool, error) {
		audit := &protocol.ForceReleaseAudit{
			AgentID:   agentID,
			Reason:    reason,
			Timestamp: m.now(),
		}
		for module, lock := range doc.Locks {
			if lock.LockID == targetLockID {
				delete(doc.Locks, module)
				audit.ClearedModuleLocks = []protocol.Lock{lock}
				result = &protocol.ForceReleaseResult{Success: true, Audit: audit}
				return true, nil
			}
		}
		for domain, lock := range doc.DomainLocks {
			if lock.LockID == targetLockID {
				delete(doc.DomainLocks, domain)
				audit.ClearedDomainLocks = []protocol.DomainLock{lock}
				result = &protocol.ForceReleaseResult{Success: true, Audit: audit}
				return true, nil
			}
		}
		result = &protocol.ForceReleaseResult{
			Success: false,
			Error:   protocol.ErrLockNotFound,
			Message: fmt.Sprintf("no active lock with id %s", targetLockID),
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Success {
		m.logEvent(ctx, eventlog.TypeForceRelease, agentID, targetLockID, reason)
	}
	return result, nil
}

// ReleaseAll clears every module lock, domain lock, and queue entry.
// Restricted to the primary coordinator; used to reset state. Produces an
// audit record of everything cleared.
func (m *Manager) ReleaseAll(ctx context.Context, agentID, reason string) (*protocol.ForceReleaseResult, error) {
	if !m.reg.IsPrimary(agentID) {
		return &protocol.ForceReleaseResult{
			Success: false,
			Error:   protocol.ErrPermissionDenied,
			Message: "release-all is restricted to the primary coordinator",
		}, nil
	}

	var result *protocol.ForceReleaseResult
	err := m.mutateLocks(ctx, func(doc *protocol.LockDocument) (bool, error) {
		audit := &protocol.ForceReleaseAudit{
			AgentID:           agentID,
			Reason:            reason,
			Timestamp:         m.now(),
			ClearedQueueCount: len(doc.Queue),
		}
		for _, module := range sortedKeys(doc.Locks) {
			audit.ClearedModuleLocks = append(audit.ClearedModuleLocks, doc.Locks[module])
		}
		for _, domain := range sortedKeys(doc.DomainLocks) {
			audit.ClearedDomainLocks = append(audit.ClearedDomainLocks, doc.DomainLocks[domain])
		}

		doc.Locks = make(map[string]protocol.Lock)
		doc.DomainLocks = make(map[string]protocol.DomainLock)
		doc.Queue = nil

		result = &protocol.ForceReleaseResult{Success: true, Audit: audit}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent(ctx, eventlog.TypeReleaseAll, agentID, "",
		fmt.Sprintf("%s (cleared %d module locks, %d domain locks, %d queue entries)",
			reason,
			len(result.Audit.ClearedModuleLocks),
			len(result.Audit.ClearedDomainLocks),
			result.Audit.ClearedQueueCount))
	return result, nil
}

// mutateLocks runs fn against a freshly loaded lock document and persists
// it when fn reports a change, retrying the whole cycle on CAS conflict.
// fn must be safe to re-run: it is invoked once per attempt against the
// latest stored state.
func (m *Manager) mutateLocks(ctx context.Context, fn func(doc *protocol.LockDocument) (bool, error)) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		stored, err := m.store.Load(ctx, protocol.DocLocks)
		if err != nil {
			return err
		}
		doc, corrupt := protocol.DecodeLockDocument(stored.Body)
		if corrupt {
			m.logEvent(ctx, eventlog.TypeDocRecovered, "", protocol.DocLocks, "corrupt document reset to empty")
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
			return fmt.Errorf("encode lock document: %w", err)
		}
		ok, err := m.store.CompareAndSwap(ctx, protocol.DocLocks, stored.Version, body)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		// Lost the race; reload and recompute against the new state.
	}
	return protocol.ErrStoreContention
}

// sweep drops every module and domain lock whose expiry has passed.
// Sweeping is lazy: it only runs when an operation touches the store, so a
// logically expired lock remains visible until the next call.
func (m *Manager) sweep(ctx context.Context, doc *protocol.LockDocument, now time.Time) bool {
	changed := false
	for module, lock := range doc.Locks {
		if lock.Expired(now, m.grace) {
			delete(doc.Locks, module)
			changed = true
			m.logEvent(ctx, eventlog.TypeExpire, lock.AgentID, module,
				fmt.Sprintf("lock %s expired", lock.LockID))
		}
	}
	for domain, lock := range doc.DomainLocks {
		if lock.Expired(now, m.grace) {
			delete(doc.DomainLocks, domain)
			changed = true
			m.logEvent(ctx, eventlog.TypeExpire, lock.ManagerID, domain,
				fmt.Sprintf("domain lock %s expired", lock.LockID))
		}
	}
	return changed
}

// logEvent writes a best-effort audit record; coordination outcomes never
// depend on it.
func (m *Manager) logEvent(ctx context.Context, typ, agentID, subject, detail string) {
	if m.events == nil {
		return
	}
	_ = m.events.Record(ctx, typ, agentID, subject, detail)
}

// findLock locates a lock by id when req.LockID is set, otherwise by
// (resolved module, agent).
func findLock(doc *protocol.LockDocument, req ReleaseRequest) (string, protocol.Lock, bool) {
	if req.LockID != "" {
		for module, lock := range doc.Locks {
			if lock.LockID == req.LockID {
				return module, lock, true
			}
		}
		return "", protocol.Lock{}, false
	}
	for module, lock := range doc.Locks {
		if lock.AgentID == req.AgentID && matchesModule(module, req.ModuleRef) {
			return module, lock, true
		}
	}
	// Fall back to any module matching the reference, so the primary can
	// release other agents' locks by module name.
	for module, lock := range doc.Locks {
		if matchesModule(module, req.ModuleRef) {
			return module, lock, true
		}
	}
	return "", protocol.Lock{}, false
}

func matchesModule(module, ref string) bool {
	if module == ref {
		return true
	}
	for _, seg := range strings.Split(ref, "/") {
		if strings.EqualFold(seg, module) {
			return true
		}
	}
	return false
}

func dropQueueEntries(queue []protocol.QueueEntry, agentID, module string) []protocol.QueueEntry {
	out := queue[:0]
	for _, e := range queue {
		if e.AgentID == agentID && e.Module == module {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
