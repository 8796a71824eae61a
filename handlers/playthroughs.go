package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"playlater/cache"
	"playlater/db"
	"playlater/lifecycle"
	"playlater/models"
	"playlater/monitoring"
	"playlater/utils"
)

var playthroughSortColumns = map[string]string{
	"title":           "games.title",
	"status":          "playthroughs.status",
	"platform":        "playthroughs.platform",
	"rating":          "playthroughs.rating",
	"play_time_hours": "playthroughs.play_time_hours",
	"started_at":      "playthroughs.started_at",
	"completed_at":    "playthroughs.completed_at",
	"created_at":      "playthroughs.created_at",
	"updated_at":      "playthroughs.updated_at",
}

func playthroughQuery(c *gin.Context, userID string) *gorm.DB {
	query := db.DB.Model(&models.Playthrough{}).
		Joins("JOIN games ON games.id = playthroughs.game_id").
		Where("playthroughs.user_id = ?", userID)

	if statuses := c.QueryArray("status"); len(statuses) > 0 {
		query = query.Where("playthroughs.status IN ?", statuses)
	}
	if platforms := c.QueryArray("platform"); len(platforms) > 0 {
		query = query.Where("playthroughs.platform IN ?", platforms)
	}
	if kinds := c.QueryArray("playthrough_type"); len(kinds) > 0 {
		query = query.Where("playthroughs.playthrough_type IN ?", kinds)
	}
	if diffs := c.QueryArray("difficulty"); len(diffs) > 0 {
		query = query.Where("playthroughs.difficulty IN ?", diffs)
	}
	if v := c.Query("rating_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query = query.Where("playthroughs.rating >= ?", n)
		}
	}
	if v := c.Query("rating_max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query = query.Where("playthroughs.rating <= ?", n)
		}
	}
	if v := c.Query("play_time_min"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			query = query.Where("playthroughs.play_time_hours >= ?", n)
		}
	}
	if v := c.Query("play_time_max"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			query = query.Where("playthroughs.play_time_hours <= ?", n)
		}
	}
	if v := c.Query("started_after"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query = query.Where("playthroughs.started_at >= ?", t)
		}
	}
	if v := c.Query("started_before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query = query.Where("playthroughs.started_at <= ?", t)
		}
	}
	if v := c.Query("completed_after"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query = query.Where("playthroughs.completed_at >= ?", t)
		}
	}
	if v := c.Query("completed_before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query = query.Where("playthroughs.completed_at <= ?", t)
		}
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("games.title ILIKE ? OR playthroughs.notes ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	return query
}

func ListPlaythroughs(c *gin.Context) {
	user := currentUser(c)
	limit, offset := pagination(c)
	query := playthroughQuery(c, user.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Log.Errorf("failed to count playthroughs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list playthroughs"})
		return
	}

	column, ok := playthroughSortColumns[c.DefaultQuery("sort_by", "updated_at")]
	if !ok {
		column = "playthroughs.updated_at"
	}
	direction := "DESC"
	if c.DefaultQuery("order", "desc") == "asc" {
		direction = "ASC"
	}

	var playthroughs []models.Playthrough
	err := query.Select("playthroughs.*").
		Preload("Game").
		Order(column + " " + direction).
		Limit(limit).Offset(offset).
		Find(&playthroughs).Error
	if err != nil {
		utils.Log.Errorf("failed to list playthroughs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list playthroughs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playthroughs": playthroughs,
		"total_count":  total,
		"limit":        limit,
		"offset":       offset,
	})
}

func CreatePlaythrough(c *gin.Context) {
	user := currentUser(c)

	var input models.PlaythroughCreateInput
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

	if input.CollectionID != nil {
		var item models.CollectionItem
		err := db.DB.Where("id = ? AND user_id = ?", *input.CollectionID, user.ID).First(&item).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Collection item not found"})
			return
		}
		if item.GameID != input.GameID {
			respondError(c, lifecycle.Validationf("Collection item belongs to a different game"))
			return
		}
	}

	now := time.Now().UTC()
	pt := models.Playthrough{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		GameID:          input.GameID,
		CollectionID:    input.CollectionID,
		Status:          input.Status,
		Platform:        input.Platform,
		StartedAt:       input.StartedAt,
		CompletedAt:     input.CompletedAt,
		PlayTimeHours:   input.PlayTimeHours,
		PlaythroughType: input.PlaythroughType,
		Difficulty:      input.Difficulty,
		Rating:          input.Rating,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	lifecycle.ApplyStatusTimestamps(&pt, lifecycle.Status(input.Status), now)

	if err := db.DB.Create(&pt).Error; err != nil {
		utils.Log.Errorf("failed to create playthrough: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to create playthrough"})
		return
	}

	pt.Game = &game
	go cache.InvalidateUserStats(user.ID)
	c.JSON(http.StatusCreated, pt)
}

func GetPlaythroughByID(c *gin.Context) {
	user := currentUser(c)

	var pt models.Playthrough
	err := db.DB.Preload("Game").Preload("Collection").
		Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&pt).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Playthrough not found"})
		return
	}
	c.JSON(http.StatusOK, pt)
}

func UpdatePlaythrough(c *gin.Context) {
	user := currentUser(c)

	var input models.PlaythroughUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	prevStatus := previousStatus(user.ID, c.Param("id"))

	pt, err := playthroughEngine.Update(c.Request.Context(), user.ID, c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	recordTransition(prevStatus, pt.Status)
	go cache.InvalidateUserStats(user.ID)
	c.JSON(http.StatusOK, pt)
}

func CompletePlaythrough(c *gin.Context) {
	user := currentUser(c)

	var input models.PlaythroughCompleteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	prevStatus := previousStatus(user.ID, c.Param("id"))

	pt, err := playthroughEngine.Complete(c.Request.Context(), user.ID, c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	recordTransition(prevStatus, pt.Status)
	go cache.InvalidateUserStats(user.ID)
	c.JSON(http.StatusOK, pt)
}

func DeletePlaythrough(c *gin.Context) {
	user := currentUser(c)

	if err := playthroughEngine.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	go cache.InvalidateUserStats(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Playthrough deleted", "id": c.Param("id")})
}

func BulkPlaythroughOperations(c *gin.Context) {
	user := currentUser(c)

	var req models.BulkPlaythroughRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	result, err := playthroughEngine.Bulk(c.Request.Context(), user.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	monitoring.RecordBulkResult("playthrough", req.Action, result.UpdatedCount, result.FailedCount)
	if result.UpdatedCount > 0 {
		go cache.InvalidateUserStats(user.ID)
	}
	c.JSON(result.StatusCode(), result)
}

// GetBacklog lists planned playthroughs. An optional priority filter matches
// the priority of the linked collection item.
func GetBacklog(c *gin.Context) {
	user := currentUser(c)
	limit, offset := pagination(c)

	query := db.DB.Model(&models.Playthrough{}).
		Where("playthroughs.user_id = ? AND playthroughs.status = ?", user.ID, string(lifecycle.StatusPlanning))

	if p := c.Query("priority"); p != "" {
		if priority, err := strconv.Atoi(p); err == nil {
			query = query.
				Joins("JOIN collection_items ON collection_items.id = playthroughs.collection_id").
				Where("collection_items.priority = ?", priority)
		}
	}

	var playthroughs []models.Playthrough
	err := query.Select("playthroughs.*").
		Preload("Game").Preload("Collection").
		Order("playthroughs.updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&playthroughs).Error
	if err != nil {
		utils.Log.Errorf("failed to list backlog: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list backlog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playthroughs": playthroughs,
		"limit":        limit,
		"offset":       offset,
	})
}

// GetCurrentlyPlaying lists active and paused playthroughs.
func GetCurrentlyPlaying(c *gin.Context) {
	user := currentUser(c)
	limit, offset := pagination(c)

	query := db.DB.Where("user_id = ? AND status IN ?", user.ID,
		[]string{string(lifecycle.StatusPlaying), string(lifecycle.StatusOnHold)})
	if platform := c.Query("platform"); platform != "" {
		query = query.Where("platform = ?", platform)
	}

	var playthroughs []models.Playthrough
	err := query.Preload("Game").
		Order("started_at DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&playthroughs).Error
	if err != nil {
		utils.Log.Errorf("failed to list currently playing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list playthroughs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playthroughs": playthroughs,
		"limit":        limit,
		"offset":       offset,
	})
}

// GetCompleted lists finished playthroughs, most recently completed first,
// with optional year, platform and minimum-rating filters.
func GetCompleted(c *gin.Context) {
	user := currentUser(c)
	limit, offset := pagination(c)

	filters := func(q *gorm.DB) *gorm.DB {
		q = q.Where("user_id = ? AND status IN ?", user.ID,
			[]string{string(lifecycle.StatusCompleted), string(lifecycle.StatusMastered)})
		if platform := c.Query("platform"); platform != "" {
			q = q.Where("platform = ?", platform)
		}
		if y := c.Query("year"); y != "" {
			if year, err := strconv.Atoi(y); err == nil {
				q = q.Where("EXTRACT(YEAR FROM completed_at) = ?", year)
			}
		}
		if r := c.Query("min_rating"); r != "" {
			if rating, err := strconv.Atoi(r); err == nil {
				q = q.Where("rating >= ?", rating)
			}
		}
		return q
	}

	var agg struct {
		Total     int64
		AvgRating float64
		TotalTime float64
	}
	err := filters(db.DB.Model(&models.Playthrough{})).
		Select("COUNT(*) AS total, COALESCE(AVG(rating), 0) AS avg_rating, COALESCE(SUM(play_time_hours), 0) AS total_time").
		Scan(&agg).Error
	if err != nil {
		utils.Log.Errorf("failed to aggregate completed playthroughs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list playthroughs"})
		return
	}

	order := "completed_at DESC"
	if c.Query("sort_by") == "rating" {
		order = "rating DESC NULLS LAST"
	}

	var playthroughs []models.Playthrough
	err = filters(db.DB).Preload("Game").
		Order(order).
		Limit(limit).Offset(offset).
		Find(&playthroughs).Error
	if err != nil {
		utils.Log.Errorf("failed to list completed playthroughs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to list playthroughs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playthroughs": playthroughs,
		"completion_stats": gin.H{
			"total_completed":       agg.Total,
			"average_rating":        agg.AvgRating,
			"total_play_time_hours": agg.TotalTime,
		},
		"limit":  limit,
		"offset": offset,
	})
}

// previousStatus is a best-effort read used only for the transition metric.
func previousStatus(userID, id string) string {
	var pt models.Playthrough
	if err := db.DB.Select("status").Where("id = ? AND user_id = ?", id, userID).First(&pt).Error; err != nil {
		return ""
	}
	return pt.Status
}

func recordTransition(from, to string) {
	if from == "" || from == to {
		return
	}
	monitoring.StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}
