package protocol

import "time"

// WardenDir is the per-user state directory under $HOME.
const WardenDir = ".warden"

// Document names in the document store. Two logical documents: one for
// locks (module locks, wait queue, domain locks), one for manager
// bookkeeping (records, assignments, escalation history).
const (
	DocLocks    = "locks"
	DocManagers = "managers"
)

// DefaultGracePeriod is added to a lock's estimated duration before the
// expiry sweep considers it stale. Override via config.yaml.
const DefaultGracePeriod = 2 * time.Minute

// EscalationHistoryCap bounds the escalation ring buffer. Oldest entries
// are evicted first when the cap is exceeded.
const EscalationHistoryCap = 50

// RecentEscalationCount is how many escalations a manager-status snapshot
// reports, most recent first.
const RecentEscalationCount = 10

// BroadcastPreviewLen is the maximum rune length of the message preview
// returned by a broadcast summary.
const BroadcastPreviewLen = 100
