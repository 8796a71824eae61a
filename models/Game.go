package models

import "time"

type Game struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"not null;index" json:"title"`
	CoverImageID *string    `json:"cover_image_id"`
	ReleaseDate  *time.Time `json:"release_date"`
	Description  *string    `json:"description"`
	IgdbID       *int       `gorm:"index" json:"igdb_id"`
	HltbID       *int       `json:"hltb_id"`
	SteamAppID   *int       `json:"steam_app_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// GameCreateInput - for adding a game to the catalog
type GameCreateInput struct {
	Title        string     `json:"title" validate:"required,min=1,max=200"`
	CoverImageID *string    `json:"cover_image_id"`
	ReleaseDate  *time.Time `json:"release_date"`
	Description  *string    `json:"description"`
	IgdbID       *int       `json:"igdb_id"`
	HltbID       *int       `json:"hltb_id"`
	SteamAppID   *int       `json:"steam_app_id"`
}
