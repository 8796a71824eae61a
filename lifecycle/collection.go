package lifecycle

import (
	"context"
	"time"

	"playlater/models"
	"playlater/utils"
)

// Collection bulk actions.
const (
	ActionUpdatePriority = "update_priority"
	ActionHide           = "hide"
	ActionActivate       = "activate"
	// update_platform is shared with the playthrough action set.
)

// CollectionEngine applies validated mutations to collection items. It is the
// second instantiation of the same mutator/bulk design as PlaythroughEngine,
// with its own action set and validation rules.
type CollectionEngine struct {
	Store CollectionStore

	// Now is swappable for tests.
	Now func() time.Time

	Workers int
}

func NewCollectionEngine(store CollectionStore) *CollectionEngine {
	return &CollectionEngine{Store: store, Now: time.Now}
}

func (e *CollectionEngine) load(ctx context.Context, userID, id string) (*models.CollectionItem, error) {
	item, err := e.Store.GetOwned(ctx, userID, id)
	if err != nil {
		utils.Log.WithField("collection_id", id).Errorf("store error loading collection item: %v", err)
		return nil, Operationf("Failed to load collection item")
	}
	if item == nil {
		return nil, NotFound("Collection item")
	}
	return item, nil
}

// Update applies a partial update. Explicit null clears the nullable fields
// (acquired_at, priority, notes); omitted keys are untouched.
func (e *CollectionEngine) Update(ctx context.Context, userID, id string, upd *models.CollectionItemUpdateInput) (*models.CollectionItem, error) {
	item, err := e.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if upd.Platform != nil {
		item.Platform = *upd.Platform
	}
	if upd.AcquisitionType != nil {
		item.AcquisitionType = *upd.AcquisitionType
	}
	if upd.Has("acquired_at") {
		item.AcquiredAt = upd.AcquiredAt
	}
	if upd.Has("priority") {
		item.Priority = upd.Priority
	}
	if upd.IsActive != nil {
		item.IsActive = *upd.IsActive
	}
	if upd.Has("notes") {
		item.Notes = upd.Notes
	}
	item.UpdatedAt = e.Now()

	if err := e.Store.Save(ctx, item); err != nil {
		utils.Log.WithField("collection_id", id).Errorf("store error updating collection item: %v", err)
		return nil, Operationf("Failed to update collection item")
	}
	return item, nil
}

// Delete soft-deletes by default (is_active=false). A hard delete removes the
// record, but only when no playthrough references it; dependents block the
// removal with a conflict instead of cascading.
func (e *CollectionEngine) Delete(ctx context.Context, userID, id string, hard bool) (*models.CollectionItem, error) {
	item, err := e.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if hard {
		count, err := e.Store.PlaythroughCount(ctx, item.ID)
		if err != nil {
			utils.Log.WithField("collection_id", id).Errorf("store error counting playthroughs: %v", err)
			return nil, Operationf("Failed to delete collection item")
		}
		if count > 0 {
			return nil, Conflictf("Cannot hard delete: collection item has associated playthroughs")
		}
		if err := e.Store.Delete(ctx, item); err != nil {
			utils.Log.WithField("collection_id", id).Errorf("store error deleting collection item: %v", err)
			return nil, Operationf("Failed to delete collection item")
		}
		return item, nil
	}

	item.IsActive = false
	item.UpdatedAt = e.Now()
	if err := e.Store.Save(ctx, item); err != nil {
		utils.Log.WithField("collection_id", id).Errorf("store error soft deleting collection item: %v", err)
		return nil, Operationf("Failed to delete collection item")
	}
	return item, nil
}

// Bulk runs one action over many collection items with the same isolation
// and aggregation contract as the playthrough engine.
func (e *CollectionEngine) Bulk(ctx context.Context, userID string, req *models.BulkCollectionRequest) (*BulkResult, error) {
	if len(req.CollectionIDs) == 0 {
		return nil, BadRequestf("collection_ids must not be empty")
	}
	fn, err := e.bulkAction(userID, req)
	if err != nil {
		return nil, err
	}
	return executeBulk(ctx, req.CollectionIDs, e.Workers, fn), nil
}

func (e *CollectionEngine) bulkAction(userID string, req *models.BulkCollectionRequest) (ItemFunc, error) {
	switch req.Action {
	case ActionUpdatePriority:
		raw, ok := req.Data["priority"]
		if !ok {
			return nil, BadRequestf("Priority data is required for update_priority action")
		}
		return func(ctx context.Context, id string) (map[string]interface{}, error) {
			item, err := e.load(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			priority, ok := asInt(raw)
			if !ok || priority < 1 || priority > 5 {
				return nil, Validationf("Priority must be between 1 and 5")
			}
			item.Priority = &priority
			item.UpdatedAt = e.Now()
			if err := e.Store.Save(ctx, item); err != nil {
				return nil, Operationf("Failed to update collection item")
			}
			return map[string]interface{}{"priority": priority}, nil
		}, nil

	case ActionUpdatePlatform:
		raw, ok := req.Data["platform"]
		if !ok {
			return nil, BadRequestf("Platform data is required for update_platform action")
		}
		return func(ctx context.Context, id string) (map[string]interface{}, error) {
			item, err := e.load(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			platform, ok := raw.(string)
			if !ok || platform == "" {
				return nil, Validationf("Platform must be a non-empty string")
			}
			item.Platform = platform
			item.UpdatedAt = e.Now()
			if err := e.Store.Save(ctx, item); err != nil {
				return nil, Operationf("Failed to update collection item")
			}
			return map[string]interface{}{"platform": platform}, nil
		}, nil

	case ActionHide:
		return e.setActive(userID, false), nil

	case ActionActivate:
		return e.setActive(userID, true), nil

	default:
		return nil, Validationf("Invalid action")
	}
}

func (e *CollectionEngine) setActive(userID string, active bool) ItemFunc {
	return func(ctx context.Context, id string) (map[string]interface{}, error) {
		item, err := e.load(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		item.IsActive = active
		item.UpdatedAt = e.Now()
		if err := e.Store.Save(ctx, item); err != nil {
			return nil, Operationf("Failed to update collection item")
		}
		return map[string]interface{}{"is_active": active}, nil
	}
}
