package lockmgr

import (
	"context"
	"sort"
	"time"

	"warden/pkg/protocol"
)

// Snapshot loads the lock document and filters logically expired locks
// without persisting. Read-only callers (status, deadlock detection, the
// dashboard) see the post-sweep view, but the sweep is only durably applied
// by the next mutating operation.
func (m *Manager) Snapshot(ctx context.Context) (*protocol.LockDocument, error) {
	stored, err := m.store.Load(ctx, protocol.DocLocks)
	if err != nil {
		return nil, err
	}
	doc, _ := protocol.DecodeLockDocument(stored.Body)

	now := m.now()
	for module, lock := range doc.Locks {
		if lock.Expired(now, m.grace) {
			delete(doc.Locks, module)
		}
	}
	for domain, lock := range doc.DomainLocks {
		if lock.Expired(now, m.grace) {
			delete(doc.DomainLocks, domain)
		}
	}
	return doc, nil
}

// Status builds the read-only projection: active locks with remaining TTL,
// queue entries with wait time and current position, domain locks with
// remaining TTL, and per-module/per-domain availability.
func (m *Manager) Status(ctx context.Context) (*protocol.StatusSnapshot, error) {
	doc, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := m.now()

	snap := &protocol.StatusSnapshot{
		Timestamp:          now,
		ModuleAvailability: make(map[string]bool),
		DomainAvailability: make(map[string]bool),
	}

	for _, module := range sortedKeys(doc.Locks) {
		lock := doc.Locks[module]
		snap.Locks = append(snap.Locks, protocol.LockStatus{
			Lock:        lock,
			RemainingMs: remainingMs(lock.ExpiresAt(m.grace), now),
		})
	}

	// Positions are per module, FIFO by stored order.
	positions := make(map[string]int)
	for _, entry := range doc.Queue {
		positions[entry.Module]++
		snap.Queue = append(snap.Queue, protocol.QueueStatus{
			QueueEntry: entry,
			Position:   positions[entry.Module],
			WaitingMs:  now.Sub(entry.WaitingSince).Milliseconds(),
		})
	}

	for _, domain := range sortedKeys(doc.DomainLocks) {
		lock := doc.DomainLocks[domain]
		snap.DomainLocks = append(snap.DomainLocks, protocol.DomainLockStatus{
			DomainLock:  lock,
			RemainingMs: remainingMs(lock.ExpiresAt(m.grace), now),
		})
	}

	for _, module := range m.reg.ModuleNames() {
		_, locked := doc.Locks[module]
		snap.ModuleAvailability[module] = !locked
	}
	for _, domain := range m.reg.DomainNames() {
		_, locked := doc.DomainLocks[domain]
		snap.DomainAvailability[domain] = !locked
	}
	return snap, nil
}

func remainingMs(expiresAt, now time.Time) int64 {
	remaining := expiresAt.Sub(now).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
