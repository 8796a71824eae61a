package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"playlater/db"
	"playlater/models"
	"playlater/utils"
)

// pagination bounds shared by the list endpoints
const (
	defaultLimit = 20
	maxLimit     = 100
)

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func GetGames(c *gin.Context) {
	limit, offset := pagination(c)

	query := db.DB.Model(&models.Game{})
	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Log.Errorf("failed to count games: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list games"})
		return
	}

	var games []models.Game
	if err := query.Order("title ASC").Limit(limit).Offset(offset).Find(&games).Error; err != nil {
		utils.Log.Errorf("failed to list games: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list games"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"games":       games,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
	})
}

func GetGameByID(c *gin.Context) {
	var game models.Game
	if err := db.DB.First(&game, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, game)
}

func CreateGame(c *gin.Context) {
	var input models.GameCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	now := time.Now().UTC()
	game := models.Game{
		ID:           uuid.NewString(),
		Title:        input.Title,
		CoverImageID: input.CoverImageID,
		ReleaseDate:  input.ReleaseDate,
		Description:  input.Description,
		IgdbID:       input.IgdbID,
		HltbID:       input.HltbID,
		SteamAppID:   input.SteamAppID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.DB.Create(&game).Error; err != nil {
		utils.Log.Errorf("failed to create game: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to create game"})
		return
	}

	c.JSON(http.StatusCreated, game)
}
