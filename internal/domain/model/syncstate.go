package model

import "time"

// CachedEntity is one remote entity as mirrored in the local cache.
// (Domain, EntityID) is the cache key; Payload is the JSON-encoded domain
// record.
type CachedEntity struct {
	Domain   Domain
	EntityID string
	Payload  []byte
	SyncedAt time.Time
}

// SyncState records the outcome of the most recent sync attempts for one
// domain. Mutated only by the sync engine; read by domain services to decide
// cache-vs-live fallback and by daemon status reporting.
type SyncState struct {
	Domain        Domain
	LastSuccessAt time.Time // zero when the domain has never synced
	LastError     string    // empty when the last attempt succeeded
	EntityCount   int
}

// DomainOutcome is the per-domain result of one sync cycle.
type DomainOutcome struct {
	Domain      Domain
	Err         error
	EntityCount int
	Attempts    int
}

// CycleResult aggregates a full sync cycle across all domains.
type CycleResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []DomainOutcome
}

// OK reports whether every domain in the cycle succeeded.
func (r CycleResult) OK() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return false
		}
	}
	return len(r.Outcomes) > 0
}

// DaemonState is the liveness record written by a running daemon.
type DaemonState struct {
	PID             int       `json:"pid"`
	StartedAt       time.Time `json:"started_at"`
	IntervalSeconds int       `json:"interval_seconds"`
	Schedule        string    `json:"schedule,omitempty"` // cron expression, when configured
}

// DaemonStatus is the externally visible daemon state plus the most recent
// cycle outcome assembled from sync state records.
type DaemonStatus struct {
	Running   bool
	PID       int
	StartedAt time.Time
	Interval  time.Duration
	Schedule  string
	Domains   []SyncState
}

// LastSync returns the most recent successful sync time across all domains,
// or the zero time when nothing has ever synced.
func (s DaemonStatus) LastSync() time.Time {
	var last time.Time
	for _, d := range s.Domains {
		if d.LastSuccessAt.After(last) {
			last = d.LastSuccessAt
		}
	}
	return last
}
