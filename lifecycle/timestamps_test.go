package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlater/models"
)

func TestTimestampsSetOnFirstPlay(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pt := &models.Playthrough{Status: string(StatusPlanning)}

	ApplyStatusTimestamps(pt, StatusPlaying, now)

	require.NotNil(t, pt.StartedAt)
	assert.Equal(t, now, *pt.StartedAt)
	assert.Nil(t, pt.CompletedAt)
}

func TestTimestampsFirstWriteWins(t *testing.T) {
	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	pt := &models.Playthrough{Status: string(StatusOnHold), StartedAt: &started}

	ApplyStatusTimestamps(pt, StatusPlaying, later)

	assert.Equal(t, started, *pt.StartedAt)
}

func TestTimestampsCompletionSetOnce(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	later := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	pt := &models.Playthrough{Status: string(StatusPlaying)}
	ApplyStatusTimestamps(pt, StatusCompleted, now)
	require.NotNil(t, pt.CompletedAt)
	assert.Equal(t, now, *pt.CompletedAt)

	// COMPLETED -> MASTERED keeps the original completion time.
	ApplyStatusTimestamps(pt, StatusMastered, later)
	assert.Equal(t, now, *pt.CompletedAt)
}

func TestTimestampsUntouchedForNonTerminal(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pt := &models.Playthrough{Status: string(StatusPlaying)}

	ApplyStatusTimestamps(pt, StatusOnHold, now)
	ApplyStatusTimestamps(pt, StatusDropped, now)

	assert.Nil(t, pt.StartedAt)
	assert.Nil(t, pt.CompletedAt)
}
