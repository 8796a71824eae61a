package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlater/models"
)

const testUser = "user-1"

func testPlaythrough(id, status string) *models.Playthrough {
	return &models.Playthrough{
		ID:       id,
		UserID:   testUser,
		GameID:   "game-1",
		Status:   status,
		Platform: "PC",
	}
}

func testEngine(store PlaythroughStore, now time.Time) *PlaythroughEngine {
	e := NewPlaythroughEngine(store)
	e.Now = func() time.Time { return now }
	return e
}

func updateInput(t *testing.T, body string) *models.PlaythroughUpdateInput {
	t.Helper()
	var upd models.PlaythroughUpdateInput
	require.NoError(t, json.Unmarshal([]byte(body), &upd))
	return &upd
}

func TestUpdateNotFound(t *testing.T) {
	e := testEngine(newMemPlaythroughStore(), time.Now())

	_, err := e.Update(context.Background(), testUser, "missing", updateInput(t, `{"notes":"x"}`))

	require.Error(t, err)
	assert.Equal(t, KindNotFound, ErrorKind(err))
	assert.Equal(t, 404, HTTPStatus(err))
	assert.Equal(t, "Playthrough not found", err.Error())
}

func TestUpdateOtherUsersRecordIsOpaque(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	e := testEngine(store, time.Now())

	_, err := e.Update(context.Background(), "someone-else", "pt-1", updateInput(t, `{"notes":"x"}`))

	require.Error(t, err)
	assert.Equal(t, KindNotFound, ErrorKind(err))
}

func TestUpdateInvalidTransition(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlanning)))
	e := testEngine(store, time.Now())

	_, err := e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"status":"COMPLETED"}`))

	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrorKind(err))
	assert.Equal(t, 422, HTTPStatus(err))
	assert.Equal(t, "Invalid status transition from PLANNING to COMPLETED", err.Error())
	// Record untouched after a rejected transition.
	assert.Equal(t, string(StatusPlanning), store.get("pt-1").Status)
}

func TestUpdateUnknownStatus(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlanning)))
	e := testEngine(store, time.Now())

	_, err := e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"status":"FINISHED"}`))

	require.Error(t, err)
	assert.Equal(t, KindValidation, ErrorKind(err))
}

func TestUpdateStartedAtSetOnceAcrossPauses(t *testing.T) {
	t1 := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlanning)))

	e := testEngine(store, t1)
	pt, err := e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"status":"PLAYING"}`))
	require.NoError(t, err)
	require.NotNil(t, pt.StartedAt)
	assert.Equal(t, t1, *pt.StartedAt)

	e.Now = func() time.Time { return t2 }
	_, err = e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"status":"ON_HOLD"}`))
	require.NoError(t, err)
	pt, err = e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"status":"PLAYING"}`))
	require.NoError(t, err)

	assert.Equal(t, t1, *pt.StartedAt, "resuming must not reset started_at")
	assert.Equal(t, t2, pt.UpdatedAt)
}

func TestUpdateExplicitTimestampWins(t *testing.T) {
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlanning)))
	e := testEngine(store, now)

	pt, err := e.Update(context.Background(), testUser, "pt-1",
		updateInput(t, `{"status":"PLAYING","started_at":"2025-01-15T00:00:00Z"}`))
	require.NoError(t, err)

	require.NotNil(t, pt.StartedAt)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *pt.StartedAt)
}

func TestUpdateNullClearsOmittedLeaves(t *testing.T) {
	notes := "old notes"
	rating := 8
	pt := testPlaythrough("pt-1", string(StatusPlaying))
	pt.Notes = &notes
	pt.Rating = &rating
	store := newMemPlaythroughStore(pt)
	e := testEngine(store, time.Now())

	got, err := e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"notes":null}`))
	require.NoError(t, err)

	assert.Nil(t, got.Notes, "explicit null clears the field")
	require.NotNil(t, got.Rating)
	assert.Equal(t, 8, *got.Rating, "omitted key leaves the field untouched")
}

func TestUpdateNullStatusIgnored(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	e := testEngine(store, time.Now())

	got, err := e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"status":null,"platform":null}`))
	require.NoError(t, err)

	assert.Equal(t, string(StatusPlaying), got.Status)
	assert.Equal(t, "PC", got.Platform)
}

func TestCompleteFromPlaying(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	e := testEngine(store, now)

	rating := 9
	hours := 52.5
	pt, err := e.Complete(context.Background(), testUser, "pt-1", &models.PlaythroughCompleteInput{
		CompletionType:     string(StatusCompleted),
		Rating:             &rating,
		FinalPlayTimeHours: &hours,
	})
	require.NoError(t, err)

	assert.Equal(t, string(StatusCompleted), pt.Status)
	require.NotNil(t, pt.CompletedAt)
	assert.Equal(t, now, *pt.CompletedAt)
	assert.Equal(t, 9, *pt.Rating)
	assert.Equal(t, 52.5, *pt.PlayTimeHours)
}

func TestCompleteAlreadyFinalizedConflicts(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusMastered, StatusDropped} {
		store := newMemPlaythroughStore(testPlaythrough("pt-1", string(status)))
		e := testEngine(store, time.Now())

		_, err := e.Complete(context.Background(), testUser, "pt-1", &models.PlaythroughCompleteInput{
			CompletionType: string(StatusCompleted),
		})

		require.Error(t, err, "completing a %s playthrough", status)
		assert.Equal(t, KindConflict, ErrorKind(err))
		assert.Equal(t, 409, HTTPStatus(err))
	}
}

func TestCompleteDropWithoutRating(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	e := testEngine(store, now)

	pt, err := e.Complete(context.Background(), testUser, "pt-1", &models.PlaythroughCompleteInput{
		CompletionType: string(StatusDropped),
	})
	require.NoError(t, err)

	assert.Equal(t, string(StatusDropped), pt.Status)
	assert.Nil(t, pt.Rating)
	require.NotNil(t, pt.CompletedAt, "dropping still records when the run ended")
	assert.Equal(t, now, *pt.CompletedAt)
}

func TestCompleteToOnHoldLeavesCompletedAt(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	e := testEngine(store, time.Now())

	pt, err := e.Complete(context.Background(), testUser, "pt-1", &models.PlaythroughCompleteInput{
		CompletionType: string(StatusOnHold),
	})
	require.NoError(t, err)

	assert.Equal(t, string(StatusOnHold), pt.Status)
	assert.Nil(t, pt.CompletedAt)
}

func TestCompleteUnknownType(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	e := testEngine(store, time.Now())

	_, err := e.Complete(context.Background(), testUser, "pt-1", &models.PlaythroughCompleteInput{
		CompletionType: "FINISHED",
	})

	require.Error(t, err)
	assert.Equal(t, KindValidation, ErrorKind(err))
}

func TestCompleteIllegalFromPlanning(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlanning)))
	e := testEngine(store, time.Now())

	_, err := e.Complete(context.Background(), testUser, "pt-1", &models.PlaythroughCompleteInput{
		CompletionType: string(StatusCompleted),
	})

	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrorKind(err))
}

func TestMasteringKeepsOriginalCompletionTime(t *testing.T) {
	completed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	pt := testPlaythrough("pt-1", string(StatusCompleted))
	pt.CompletedAt = &completed
	store := newMemPlaythroughStore(pt)
	e := testEngine(store, later)

	got, err := e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"status":"MASTERED"}`))
	require.NoError(t, err)

	assert.Equal(t, string(StatusMastered), got.Status)
	assert.Equal(t, completed, *got.CompletedAt)
	assert.Equal(t, later, got.UpdatedAt)
}

func TestDeletePlaythrough(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	e := testEngine(store, time.Now())

	require.NoError(t, e.Delete(context.Background(), testUser, "pt-1"))
	assert.Nil(t, store.get("pt-1"))

	err := e.Delete(context.Background(), testUser, "pt-1")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, ErrorKind(err))
}

func TestStoreFailureSurfacesAsOperation(t *testing.T) {
	store := newMemPlaythroughStore(testPlaythrough("pt-1", string(StatusPlaying)))
	store.getErr["pt-1"] = errors.New("connection reset")
	e := testEngine(store, time.Now())

	_, err := e.Update(context.Background(), testUser, "pt-1", updateInput(t, `{"notes":"x"}`))

	require.Error(t, err)
	assert.Equal(t, KindOperation, ErrorKind(err))
	assert.Equal(t, 500, HTTPStatus(err))
}
