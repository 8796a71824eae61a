package lifecycle

import (
	"context"

	"playlater/models"
)

// PlaythroughStore is the engine's view of playthrough persistence. GetOwned
// returns (nil, nil) when no record matches both id and owner. Save and
// Delete each commit exactly one record; the bulk executor relies on that
// per-record boundary and never wraps a batch in a wider transaction.
type PlaythroughStore interface {
	GetOwned(ctx context.Context, userID, id string) (*models.Playthrough, error)
	Save(ctx context.Context, pt *models.Playthrough) error
	Delete(ctx context.Context, pt *models.Playthrough) error
}

// CollectionStore is the engine's view of collection-item persistence, with
// the same per-record commit contract as PlaythroughStore. PlaythroughCount
// backs the hard-delete referential guard.
type CollectionStore interface {
	GetOwned(ctx context.Context, userID, id string) (*models.CollectionItem, error)
	Save(ctx context.Context, item *models.CollectionItem) error
	Delete(ctx context.Context, item *models.CollectionItem) error
	PlaythroughCount(ctx context.Context, collectionID string) (int64, error)
}
