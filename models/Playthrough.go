package models

import (
	"encoding/json"
	"time"
)

// Playthrough represents one attempt at playing a game, optionally linked to
// a collection item owned by the same user.
type Playthrough struct {
	ID              string          `gorm:"primaryKey" json:"id"`
	UserID          string          `gorm:"not null;index" json:"user_id"`
	GameID          string          `gorm:"not null;index" json:"game_id"`
	CollectionID    *string         `gorm:"index" json:"collection_id"`
	Status          string          `gorm:"not null;index" json:"status"`
	Platform        string          `gorm:"not null;index" json:"platform"`
	StartedAt       *time.Time      `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
	PlayTimeHours   *float64        `json:"play_time_hours"`
	PlaythroughType *string         `json:"playthrough_type"`
	Difficulty      *string         `json:"difficulty"`
	Rating          *int            `json:"rating"`
	Notes           *string         `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Game            *Game           `gorm:"foreignKey:GameID" json:"game,omitempty"`
	Collection      *CollectionItem `gorm:"foreignKey:CollectionID" json:"collection,omitempty"`
}

// PlaythroughCreateInput - for starting a new playthrough
type PlaythroughCreateInput struct {
	GameID          string     `json:"game_id" validate:"required"`
	CollectionID    *string    `json:"collection_id"`
	Status          string     `json:"status" validate:"required,oneof=PLANNING PLAYING COMPLETED DROPPED ON_HOLD MASTERED"`
	Platform        string     `json:"platform" validate:"required"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	PlayTimeHours   *float64   `json:"play_time_hours" validate:"omitempty,gte=0"`
	PlaythroughType *string    `json:"playthrough_type"`
	Difficulty      *string    `json:"difficulty"`
	Rating          *int       `json:"rating" validate:"omitempty,gte=1,lte=10"`
	Notes           *string    `json:"notes"`
}

// PlaythroughUpdateInput - partial update. A key that is present with a null
// value clears the field; a key that is absent leaves it untouched.
type PlaythroughUpdateInput struct {
	Status          *string    `json:"status" validate:"omitempty,oneof=PLANNING PLAYING COMPLETED DROPPED ON_HOLD MASTERED"`
	Platform        *string    `json:"platform"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	PlayTimeHours   *float64   `json:"play_time_hours" validate:"omitempty,gte=0"`
	PlaythroughType *string    `json:"playthrough_type"`
	Difficulty      *string    `json:"difficulty"`
	Rating          *int       `json:"rating" validate:"omitempty,gte=1,lte=10"`
	Notes           *string    `json:"notes"`

	present map[string]struct{}
}

func (u *PlaythroughUpdateInput) UnmarshalJSON(data []byte) error {
	type alias PlaythroughUpdateInput
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = PlaythroughUpdateInput(a)
	u.present = make(map[string]struct{}, len(raw))
	for k := range raw {
		u.present[k] = struct{}{}
	}
	return nil
}

// Has reports whether the field key appeared in the request body at all,
// distinguishing explicit null from omitted.
func (u *PlaythroughUpdateInput) Has(field string) bool {
	_, ok := u.present[field]
	return ok
}

// PlaythroughCompleteInput - for finishing a playthrough
type PlaythroughCompleteInput struct {
	CompletionType     string     `json:"completion_type" validate:"required"`
	CompletedAt        *time.Time `json:"completed_at"`
	FinalPlayTimeHours *float64   `json:"final_play_time_hours" validate:"omitempty,gte=0"`
	Rating             *int       `json:"rating" validate:"omitempty,gte=1,lte=10"`
	FinalNotes         *string    `json:"final_notes"`
}

// BulkPlaythroughRequest - one action applied to many playthroughs
type BulkPlaythroughRequest struct {
	Action         string                 `json:"action"`
	PlaythroughIDs []string               `json:"playthrough_ids"`
	Data           map[string]interface{} `json:"data"`
}
