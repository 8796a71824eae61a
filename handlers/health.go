package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playlater/cache"
	"playlater/db"
)

// HealthCheck reports process liveness plus dependency reachability. Redis
// being down degrades the response but does not fail it; the API works
// without the cache.
func HealthCheck(c *gin.Context) {
	overall := "ok"
	status := http.StatusOK
	database := "up"

	sqlDB, err := db.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		database = "down"
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	redisStatus := "down"
	if cache.IsRedisAvailable() {
		redisStatus = "up"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": database,
		"redis":    redisStatus,
	})
}
