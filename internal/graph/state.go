package graph

// Status is the lifecycle state of a task. Tasks move
// Pending -> Running -> {Succeeded | Failed}. Skipped marks tasks that
// were never attempted because a dependency failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether a task in this state will never run again.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}
