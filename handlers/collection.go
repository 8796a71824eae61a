package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"playlater/cache"
	"playlater/db"
	"playlater/models"
	"playlater/monitoring"
	"playlater/utils"
)

// collectionSortColumns whitelists the sortable columns; anything else falls
// back to updated_at.
var collectionSortColumns = map[string]string{
	"title":       "games.title",
	"acquired_at": "collection_items.acquired_at",
	"priority":    "collection_items.priority",
	"platform":    "collection_items.platform",
	"updated_at":  "collection_items.updated_at",
}

func ListCollection(c *gin.Context) {
	user := currentUser(c)
	limit, offset := pagination(c)

	query := db.DB.Model(&models.CollectionItem{}).
		Joins("JOIN games ON games.id = collection_items.game_id").
		Where("collection_items.user_id = ?", user.ID)

	if platform := c.Query("platform"); platform != "" {
		query = query.Where("collection_items.platform = ?", platform)
	}
	if at := c.Query("acquisition_type"); at != "" {
		query = query.Where("collection_items.acquisition_type = ?", at)
	}
	if p := c.Query("priority"); p != "" {
		if priority, err := strconv.Atoi(p); err == nil {
			query = query.Where("collection_items.priority = ?", priority)
		}
	}
	if active := c.Query("is_active"); active != "" {
		query = query.Where("collection_items.is_active = ?", active == "true")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("games.title ILIKE ? OR collection_items.notes ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Log.Errorf("failed to count collection items: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list collection"})
		return
	}

	column, ok := collectionSortColumns[c.DefaultQuery("sort_by", "updated_at")]
	if !ok {
		column = "collection_items.updated_at"
	}
	direction := "DESC"
	if c.DefaultQuery("order", "desc") == "asc" {
		direction = "ASC"
	}

	var items []models.CollectionItem
	err := query.Select("collection_items.*").
		Preload("Game").
		Preload("Playthroughs").
		Order(column + " " + direction).
		Limit(limit).Offset(offset).
		Find(&items).Error
	if err != nil {
		utils.Log.Errorf("failed to list collection items: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list collection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
	})
}

func CreateCollectionItem(c *gin.Context) {
	user := currentUser(c)

	var input models.CollectionItemCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	var game models.Game
	if err := db.DB.First(&game, "id = ?", input.GameID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Game not found"})
		return
	}

	var existing models.CollectionItem
	err := db.DB.Where("user_id = ? AND game_id = ? AND platform = ?", user.ID, input.GameID, input.Platform).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "Game already in collection for this platform"})
		return
	}

	now := time.Now().UTC()
	item := models.CollectionItem{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		GameID:          input.GameID,
		Platform:        input.Platform,
		AcquisitionType: input.AcquisitionType,
		AcquiredAt:      input.AcquiredAt,
		Priority:        input.Priority,
		IsActive:        true,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.DB.Create(&item).Error; err != nil {
		utils.Log.Errorf("failed to create collection item: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to add game to collection"})
		return
	}

	item.Game = &game
	go cache.InvalidateUserStats(user.ID)
	c.JSON(http.StatusCreated, item)
}

func GetCollectionItem(c *gin.Context) {
	user := currentUser(c)

	var item models.CollectionItem
	err := db.DB.Preload("Game").Preload("Playthroughs").
		Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&item).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Collection item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func UpdateCollectionItem(c *gin.Context) {
	user := currentUser(c)

	var input models.CollectionItemUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	item, err := collectionEngine.Update(c.Request.Context(), user.ID, c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	go cache.InvalidateUserStats(user.ID)
	c.JSON(http.StatusOK, item)
}

func DeleteCollectionItem(c *gin.Context) {
	user := currentUser(c)
	hard := c.DefaultQuery("hard", "false") == "true"

	item, err := collectionEngine.Delete(c.Request.Context(), user.ID, c.Param("id"), hard)
	if err != nil {
		respondError(c, err)
		return
	}

	go cache.InvalidateUserStats(user.ID)
	if hard {
		c.JSON(http.StatusOK, gin.H{"message": "Collection item deleted", "id": item.ID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collection item hidden", "id": item.ID, "is_active": item.IsActive})
}

func BulkCollectionOperations(c *gin.Context) {
	user := currentUser(c)

	var req models.BulkCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	result, err := collectionEngine.Bulk(c.Request.Context(), user.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	monitoring.RecordBulkResult("collection", req.Action, result.UpdatedCount, result.FailedCount)
	if result.UpdatedCount > 0 {
		go cache.InvalidateUserStats(user.ID)
	}
	c.JSON(result.StatusCode(), result)
}
