package domain

import "time"

// Status represents the lifecycle states shared by component instances and
// connections.
type Status string

// Lifecycle states in conceptual order. The transition function accepts any
// valid member as a target; ordering is not enforced.
const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusObsolete   Status = "obsolete"
)

// Valid reports whether the status is a declared member of the enum.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusComplete, StatusObsolete:
		return true
	}
	return false
}

// Lifecycle carries the shared status fields embedded in stateful entities.
// New entities always start in StatusPlanned.
type Lifecycle struct {
	Status          Status    `json:"status"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}

// Transition moves the entity to next and stamps the change time. Any member
// of the status enum is an acceptable target, including moves backward.
func (l *Lifecycle) Transition(next Status, now time.Time) error {
	if !next.Valid() {
		return LifecycleError{Status: next}
	}
	l.Status = next
	l.StatusChangedAt = now
	return nil
}
