package lifecycle

import (
	"context"
	"time"

	"playlater/models"
	"playlater/utils"
)

// Playthrough bulk actions.
const (
	ActionUpdateStatus   = "update_status"
	ActionUpdatePlatform = "update_platform"
	ActionAddTime        = "add_time"
	ActionDelete         = "delete"
)

// PlaythroughEngine applies validated mutations to playthroughs, one record
// at a time. It is stateless between calls; all state lives in the store.
type PlaythroughEngine struct {
	Store PlaythroughStore

	// Now is swappable for tests.
	Now func() time.Time

	// Workers > 1 lets Bulk process items through a pool. Items are
	// independent and commit separately, so this is safe; results keep
	// request order either way.
	Workers int
}

func NewPlaythroughEngine(store PlaythroughStore) *PlaythroughEngine {
	return &PlaythroughEngine{Store: store, Now: time.Now}
}

func (e *PlaythroughEngine) load(ctx context.Context, userID, id string) (*models.Playthrough, error) {
	pt, err := e.Store.GetOwned(ctx, userID, id)
	if err != nil {
		utils.Log.WithField("playthrough_id", id).Errorf("store error loading playthrough: %v", err)
		return nil, Operationf("Failed to load playthrough")
	}
	if pt == nil {
		return nil, NotFound("Playthrough")
	}
	return pt, nil
}

// Update applies a partial update. A status change is validated against the
// transition table; all other supplied fields are applied as-is, with
// explicit null clearing nullable fields. Timestamp derivation runs after
// the caller's fields so an explicitly supplied timestamp always wins.
func (e *PlaythroughEngine) Update(ctx context.Context, userID, id string, upd *models.PlaythroughUpdateInput) (*models.Playthrough, error) {
	pt, err := e.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var newStatus *Status
	if upd.Status != nil && *upd.Status != pt.Status {
		from, to := Status(pt.Status), Status(*upd.Status)
		if !to.Valid() {
			return nil, Validationf("Unknown status %q", *upd.Status)
		}
		if !CanTransition(from, to) {
			return nil, InvalidTransition(from, to)
		}
		newStatus = &to
	} else if upd.Status != nil {
		s := Status(*upd.Status)
		newStatus = &s
	}

	if newStatus != nil {
		pt.Status = string(*newStatus)
	}
	// Explicit null on a non-nullable field (status, platform) is ignored;
	// nullable fields are cleared.
	if upd.Platform != nil {
		pt.Platform = *upd.Platform
	}
	if upd.Has("started_at") {
		pt.StartedAt = upd.StartedAt
	}
	if upd.Has("completed_at") {
		pt.CompletedAt = upd.CompletedAt
	}
	if upd.Has("play_time_hours") {
		pt.PlayTimeHours = upd.PlayTimeHours
	}
	if upd.Has("playthrough_type") {
		pt.PlaythroughType = upd.PlaythroughType
	}
	if upd.Has("difficulty") {
		pt.Difficulty = upd.Difficulty
	}
	if upd.Has("rating") {
		pt.Rating = upd.Rating
	}
	if upd.Has("notes") {
		pt.Notes = upd.Notes
	}

	now := e.Now()
	if newStatus != nil {
		ApplyStatusTimestamps(pt, *newStatus, now)
	}
	pt.UpdatedAt = now

	if err := e.Store.Save(ctx, pt); err != nil {
		utils.Log.WithField("playthrough_id", id).Errorf("store error updating playthrough: %v", err)
		return nil, Operationf("Failed to update playthrough")
	}
	return pt, nil
}

// Complete finishes a playthrough. A playthrough already in a terminal-for-
// completion state (COMPLETED, MASTERED, DROPPED) conflicts; any other
// current status is validated against the transition table.
func (e *PlaythroughEngine) Complete(ctx context.Context, userID, id string, comp *models.PlaythroughCompleteInput) (*models.Playthrough, error) {
	pt, err := e.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	current := Status(pt.Status)
	if current == StatusCompleted || current == StatusMastered || current == StatusDropped {
		return nil, Conflictf("Playthrough is already completed with status %s", current)
	}

	target := Status(comp.CompletionType)
	switch target {
	case StatusCompleted, StatusMastered, StatusDropped, StatusOnHold:
	default:
		return nil, Validationf("Unknown completion type %q", comp.CompletionType)
	}
	if !CanTransition(current, target) {
		return nil, InvalidTransition(current, target)
	}

	now := e.Now()
	pt.Status = string(target)
	if target == StatusCompleted || target == StatusMastered || target == StatusDropped {
		if comp.CompletedAt != nil {
			pt.CompletedAt = comp.CompletedAt
		} else if pt.CompletedAt == nil {
			t := now
			pt.CompletedAt = &t
		}
	}
	if comp.FinalPlayTimeHours != nil {
		pt.PlayTimeHours = comp.FinalPlayTimeHours
	}
	if comp.Rating != nil {
		pt.Rating = comp.Rating
	}
	if comp.FinalNotes != nil {
		pt.Notes = comp.FinalNotes
	}
	pt.UpdatedAt = now

	if err := e.Store.Save(ctx, pt); err != nil {
		utils.Log.WithField("playthrough_id", id).Errorf("store error completing playthrough: %v", err)
		return nil, Operationf("Failed to complete playthrough")
	}
	return pt, nil
}

// Delete removes a playthrough unconditionally once ownership resolves.
// Unlike collection items there is no finalization or referential guard.
func (e *PlaythroughEngine) Delete(ctx context.Context, userID, id string) error {
	pt, err := e.load(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := e.Store.Delete(ctx, pt); err != nil {
		utils.Log.WithField("playthrough_id", id).Errorf("store error deleting playthrough: %v", err)
		return Operationf("Failed to delete playthrough")
	}
	return nil
}

// Bulk runs one action over many playthroughs. Request-level preconditions
// (known action, required payload key) are checked once before any item is
// touched; everything after that is per-item and isolated.
func (e *PlaythroughEngine) Bulk(ctx context.Context, userID string, req *models.BulkPlaythroughRequest) (*BulkResult, error) {
	if len(req.PlaythroughIDs) == 0 {
		return nil, BadRequestf("playthrough_ids must not be empty")
	}
	fn, err := e.bulkAction(userID, req)
	if err != nil {
		return nil, err
	}
	return executeBulk(ctx, req.PlaythroughIDs, e.Workers, fn), nil
}

func (e *PlaythroughEngine) bulkAction(userID string, req *models.BulkPlaythroughRequest) (ItemFunc, error) {
	switch req.Action {
	case ActionUpdateStatus:
		status, ok := req.Data["status"].(string)
		if !ok || status == "" {
			return nil, BadRequestf("Status is required for update_status action")
		}
		return func(ctx context.Context, id string) (map[string]interface{}, error) {
			pt, err := e.load(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			from, to := Status(pt.Status), Status(status)
			if !CanTransition(from, to) {
				return nil, InvalidTransition(from, to)
			}
			now := e.Now()
			pt.Status = string(to)
			ApplyStatusTimestamps(pt, to, now)
			pt.UpdatedAt = now
			if err := e.Store.Save(ctx, pt); err != nil {
				return nil, Operationf("Failed to update playthrough")
			}
			return map[string]interface{}{"status": pt.Status}, nil
		}, nil

	case ActionUpdatePlatform:
		platform, ok := req.Data["platform"].(string)
		if !ok || platform == "" {
			return nil, BadRequestf("Platform is required for update_platform action")
		}
		return func(ctx context.Context, id string) (map[string]interface{}, error) {
			pt, err := e.load(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			pt.Platform = platform
			pt.UpdatedAt = e.Now()
			if err := e.Store.Save(ctx, pt); err != nil {
				return nil, Operationf("Failed to update playthrough")
			}
			return map[string]interface{}{"platform": pt.Platform}, nil
		}, nil

	case ActionAddTime:
		raw, ok := req.Data["hours"]
		if !ok {
			return nil, BadRequestf("Hours is required for add_time action")
		}
		return func(ctx context.Context, id string) (map[string]interface{}, error) {
			pt, err := e.load(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			hours, ok := asFloat(raw)
			if !ok {
				return nil, Validationf("Invalid hours value")
			}
			if hours <= 0 {
				return nil, Validationf("Hours must be positive")
			}
			base := 0.0
			if pt.PlayTimeHours != nil {
				base = *pt.PlayTimeHours
			}
			total := base + hours
			pt.PlayTimeHours = &total
			pt.UpdatedAt = e.Now()
			if err := e.Store.Save(ctx, pt); err != nil {
				return nil, Operationf("Failed to update playthrough")
			}
			return map[string]interface{}{"play_time_hours": total}, nil
		}, nil

	case ActionDelete:
		return func(ctx context.Context, id string) (map[string]interface{}, error) {
			pt, err := e.load(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			if err := e.Store.Delete(ctx, pt); err != nil {
				return nil, Operationf("Failed to delete playthrough")
			}
			return map[string]interface{}{}, nil
		}, nil

	default:
		return nil, Validationf("Invalid action")
	}
}
