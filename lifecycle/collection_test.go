package lifecycle

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlater/models"
)

func testCollectionItem(id string) *models.CollectionItem {
	return &models.CollectionItem{
		ID:              id,
		UserID:          testUser,
		GameID:          "game-1",
		Platform:        "PC",
		AcquisitionType: "DIGITAL",
		IsActive:        true,
	}
}

func testCollectionEngine(store CollectionStore, now time.Time) *CollectionEngine {
	e := NewCollectionEngine(store)
	e.Now = func() time.Time { return now }
	return e
}

func collectionUpdate(t *testing.T, body string) *models.CollectionItemUpdateInput {
	t.Helper()
	var upd models.CollectionItemUpdateInput
	require.NoError(t, json.Unmarshal([]byte(body), &upd))
	return &upd
}

func TestCollectionUpdatePresenceSemantics(t *testing.T) {
	priority := 3
	notes := "finish this year"
	item := testCollectionItem("col-1")
	item.Priority = &priority
	item.Notes = &notes
	store := newMemCollectionStore(item)
	e := testCollectionEngine(store, time.Now())

	got, err := e.Update(context.Background(), testUser, "col-1", collectionUpdate(t, `{"priority":null,"platform":"Switch"}`))
	require.NoError(t, err)

	assert.Nil(t, got.Priority, "explicit null clears priority")
	assert.Equal(t, "Switch", got.Platform)
	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes, "omitted notes stay put")
}

func TestCollectionUpdateNotFound(t *testing.T) {
	e := testCollectionEngine(newMemCollectionStore(), time.Now())

	_, err := e.Update(context.Background(), testUser, "missing", collectionUpdate(t, `{"platform":"PC"}`))

	require.Error(t, err)
	assert.Equal(t, KindNotFound, ErrorKind(err))
	assert.Equal(t, "Collection item not found", err.Error())
}

func TestCollectionSoftDelete(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	store := newMemCollectionStore(testCollectionItem("col-1"))
	e := testCollectionEngine(store, now)

	item, err := e.Delete(context.Background(), testUser, "col-1", false)
	require.NoError(t, err)

	assert.False(t, item.IsActive)
	assert.Equal(t, now, item.UpdatedAt)
	require.NotNil(t, store.get("col-1"), "soft delete keeps the record")
	assert.False(t, store.get("col-1").IsActive)
}

func TestCollectionHardDeleteBlockedByPlaythroughs(t *testing.T) {
	store := newMemCollectionStore(testCollectionItem("col-1"))
	store.counts["col-1"] = 2
	e := testCollectionEngine(store, time.Now())

	_, err := e.Delete(context.Background(), testUser, "col-1", true)

	require.Error(t, err)
	assert.Equal(t, KindConflict, ErrorKind(err))
	assert.Equal(t, 409, HTTPStatus(err))
	assert.NotNil(t, store.get("col-1"), "guarded record survives")
}

func TestCollectionHardDeleteWithoutDependents(t *testing.T) {
	store := newMemCollectionStore(testCollectionItem("col-1"))
	e := testCollectionEngine(store, time.Now())

	_, err := e.Delete(context.Background(), testUser, "col-1", true)
	require.NoError(t, err)
	assert.Nil(t, store.get("col-1"))
}

func TestCollectionBulkPriority(t *testing.T) {
	store := newMemCollectionStore(testCollectionItem("col-a"), testCollectionItem("col-b"))
	e := testCollectionEngine(store, time.Now())

	result, err := e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
		Action:        ActionUpdatePriority,
		CollectionIDs: []string{"col-a", "col-b"},
		Data:          map[string]interface{}{"priority": 2.0},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, *store.get("col-a").Priority)
	assert.Equal(t, 2, result.Items[0].Changes["priority"])
}

func TestCollectionBulkPriorityOutOfRange(t *testing.T) {
	e := testCollectionEngine(newMemCollectionStore(testCollectionItem("col-a")), time.Now())

	for _, bad := range []interface{}{0.0, 6.0, 2.5, "high"} {
		result, err := e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
			Action:        ActionUpdatePriority,
			CollectionIDs: []string{"col-a"},
			Data:          map[string]interface{}{"priority": bad},
		})
		require.NoError(t, err, "priority %v", bad)
		require.Len(t, result.FailedItems, 1, "priority %v", bad)
		assert.Equal(t, "Priority must be between 1 and 5", result.FailedItems[0].Error)
	}
}

func TestCollectionBulkMissingPriorityPayload(t *testing.T) {
	e := testCollectionEngine(newMemCollectionStore(testCollectionItem("col-a")), time.Now())

	_, err := e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
		Action:        ActionUpdatePriority,
		CollectionIDs: []string{"col-a"},
	})

	require.Error(t, err)
	assert.Equal(t, KindBadRequest, ErrorKind(err))
}

func TestCollectionBulkPlatform(t *testing.T) {
	store := newMemCollectionStore(testCollectionItem("col-a"))
	e := testCollectionEngine(store, time.Now())

	result, err := e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
		Action:        ActionUpdatePlatform,
		CollectionIDs: []string{"col-a"},
		Data:          map[string]interface{}{"platform": "PS5"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "PS5", store.get("col-a").Platform)
}

func TestCollectionBulkEmptyPlatformFailsPerItem(t *testing.T) {
	e := testCollectionEngine(newMemCollectionStore(testCollectionItem("col-a")), time.Now())

	result, err := e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
		Action:        ActionUpdatePlatform,
		CollectionIDs: []string{"col-a"},
		Data:          map[string]interface{}{"platform": ""},
	})
	require.NoError(t, err)

	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, "Platform must be a non-empty string", result.FailedItems[0].Error)
}

func TestCollectionBulkHideAndActivate(t *testing.T) {
	store := newMemCollectionStore(testCollectionItem("col-a"), testCollectionItem("col-b"))
	e := testCollectionEngine(store, time.Now())

	result, err := e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
		Action:        ActionHide,
		CollectionIDs: []string{"col-a", "col-b"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, store.get("col-a").IsActive)
	assert.Equal(t, false, result.Items[0].Changes["is_active"])

	result, err = e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
		Action:        ActionActivate,
		CollectionIDs: []string{"col-a"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, store.get("col-a").IsActive)
}

func TestCollectionBulkOwnershipOpaque(t *testing.T) {
	other := testCollectionItem("col-theirs")
	other.UserID = "someone-else"
	store := newMemCollectionStore(testCollectionItem("col-mine"), other)
	e := testCollectionEngine(store, time.Now())

	result, err := e.Bulk(context.Background(), testUser, &models.BulkCollectionRequest{
		Action:        ActionHide,
		CollectionIDs: []string{"col-mine", "col-theirs"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.UpdatedCount)
	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, "Collection item not found", result.FailedItems[0].Error)
	assert.True(t, store.get("col-theirs").IsActive, "foreign record untouched")
}
