package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playlater/cache"
	"playlater/db"
	"playlater/stats"
	"playlater/utils"
)

func GetPlaythroughStats(c *gin.Context) {
	user := currentUser(c)

	var cached stats.PlaythroughStats
	if err := cache.GetPlaythroughStats(user.ID, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := stats.CalculatePlaythroughStats(db.DB, user.ID)
	if err != nil {
		utils.Log.Errorf("failed to calculate playthrough stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to calculate stats"})
		return
	}

	cache.SetPlaythroughStats(user.ID, result)
	c.JSON(http.StatusOK, result)
}

func GetCollectionStats(c *gin.Context) {
	user := currentUser(c)

	var cached stats.CollectionStats
	if err := cache.GetCollectionStats(user.ID, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := stats.CalculateCollectionStats(db.DB, user.ID)
	if err != nil {
		utils.Log.Errorf("failed to calculate collection stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to calculate stats"})
		return
	}

	cache.SetCollectionStats(user.ID, result)
	c.JSON(http.StatusOK, result)
}
