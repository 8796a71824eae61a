package lifecycle

// Status is the lifecycle state of a playthrough.
type Status string

const (
	StatusPlanning  Status = "PLANNING"
	StatusPlaying   Status = "PLAYING"
	StatusCompleted Status = "COMPLETED"
	StatusDropped   Status = "DROPPED"
	StatusOnHold    Status = "ON_HOLD"
	StatusMastered  Status = "MASTERED"
)

// transitions is the single source of truth for legal status changes. Both
// the single-item update path and the bulk status-update action consult it;
// nothing else may duplicate these edges.
var transitions = map[Status][]Status{
	StatusPlanning:  {StatusPlaying, StatusDropped},
	StatusPlaying:   {StatusCompleted, StatusDropped, StatusOnHold, StatusMastered},
	StatusOnHold:    {StatusPlaying, StatusDropped, StatusCompleted, StatusMastered},
	StatusCompleted: {StatusMastered},
	StatusDropped:   {StatusPlanning, StatusPlaying},
	StatusMastered:  {},
}

// AllStatuses lists every known status, for validation and tests.
func AllStatuses() []Status {
	return []Status{
		StatusPlanning, StatusPlaying, StatusCompleted,
		StatusDropped, StatusOnHold, StatusMastered,
	}
}

// Valid reports whether s names a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from -> to is a legal status change. A no-op
// transition (from == to) is always legal, MASTERED included.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
