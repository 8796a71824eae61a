package lifecycle

import (
	"time"

	"playlater/models"
)

// ApplyStatusTimestamps derives timestamp writes from a transition into
// newStatus. Writes are first-write-wins: a field already set, whether by an
// earlier transition or by the caller, is never clobbered.
func ApplyStatusTimestamps(pt *models.Playthrough, newStatus Status, now time.Time) {
	switch newStatus {
	case StatusPlaying:
		if pt.StartedAt == nil {
			t := now
			pt.StartedAt = &t
		}
	case StatusCompleted, StatusMastered:
		if pt.CompletedAt == nil {
			t := now
			pt.CompletedAt = &t
		}
	}
}
