package models

// JobStatus represents the lifecycle state of a scraping job
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be claimed
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a worker has claimed the job
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job finished, including the
	// duplicate-skip case
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job hit an unrecovered error
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was cancelled before it ran
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving to next is a forward transition.
// Transitions are monotonic: pending -> running -> completed|failed, with
// cancelled reachable only from pending.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning || next == JobStatusCancelled
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	}
	return false
}
