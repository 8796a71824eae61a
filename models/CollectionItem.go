package models

import (
	"encoding/json"
	"time"
)

// CollectionItem represents a user owning a game on a platform. A user can
// hold the same game on several platforms but only once per platform.
type CollectionItem struct {
	ID              string        `gorm:"primaryKey" json:"id"`
	UserID          string        `gorm:"not null;index;uniqueIndex:uq_user_game_platform" json:"user_id"`
	GameID          string        `gorm:"not null;index;uniqueIndex:uq_user_game_platform" json:"game_id"`
	Platform        string        `gorm:"not null;index;uniqueIndex:uq_user_game_platform" json:"platform"`
	AcquisitionType string        `gorm:"not null" json:"acquisition_type"`
	AcquiredAt      *time.Time    `json:"acquired_at"`
	Priority        *int          `json:"priority"`
	IsActive        bool          `gorm:"not null;default:true" json:"is_active"`
	Notes           *string       `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Game            *Game         `gorm:"foreignKey:GameID" json:"game,omitempty"`
	Playthroughs    []Playthrough `gorm:"foreignKey:CollectionID" json:"playthroughs,omitempty"`
}

// CollectionItemCreateInput - for adding a game to the collection
type CollectionItemCreateInput struct {
	GameID          string     `json:"game_id" validate:"required"`
	Platform        string     `json:"platform" validate:"required"`
	AcquisitionType string     `json:"acquisition_type" validate:"required,oneof=PHYSICAL DIGITAL SUBSCRIPTION BORROWED RENTAL"`
	AcquiredAt      *time.Time `json:"acquired_at"`
	Priority        *int       `json:"priority" validate:"omitempty,gte=1,lte=5"`
	Notes           *string    `json:"notes"`
}

// CollectionItemUpdateInput - partial update. A key that is present with a
// null value clears the field; a key that is absent leaves it untouched.
type CollectionItemUpdateInput struct {
	Platform        *string    `json:"platform"`
	AcquisitionType *string    `json:"acquisition_type" validate:"omitempty,oneof=PHYSICAL DIGITAL SUBSCRIPTION BORROWED RENTAL"`
	AcquiredAt      *time.Time `json:"acquired_at"`
	Priority        *int       `json:"priority" validate:"omitempty,gte=1,lte=5"`
	IsActive        *bool      `json:"is_active"`
	Notes           *string    `json:"notes"`

	present map[string]struct{}
}

func (u *CollectionItemUpdateInput) UnmarshalJSON(data []byte) error {
	type alias CollectionItemUpdateInput
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = CollectionItemUpdateInput(a)
	u.present = make(map[string]struct{}, len(raw))
	for k := range raw {
		u.present[k] = struct{}{}
	}
	return nil
}

// Has reports whether the field key appeared in the request body at all,
// distinguishing explicit null from omitted.
func (u *CollectionItemUpdateInput) Has(field string) bool {
	_, ok := u.present[field]
	return ok
}

// BulkCollectionRequest - one action applied to many collection items
type BulkCollectionRequest struct {
	Action        string                 `json:"action"`
	CollectionIDs []string               `json:"collection_ids"`
	Data          map[string]interface{} `json:"data"`
}
