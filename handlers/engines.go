package handlers

import (
	"github.com/gin-gonic/gin"

	"playlater/db"
	"playlater/lifecycle"
	"playlater/models"
)

var (
	playthroughEngine *lifecycle.PlaythroughEngine
	collectionEngine  *lifecycle.CollectionEngine
)

// InitEngines wires the lifecycle engines to the database-backed stores.
// Must run after db.InitDB.
func InitEngines() {
	playthroughEngine = lifecycle.NewPlaythroughEngine(db.NewPlaythroughStore(db.DB))
	collectionEngine = lifecycle.NewCollectionEngine(db.NewCollectionStore(db.DB))
}

// respondError translates an engine error into its wire status, with a stable
// machine-readable kind next to the human-readable message.
func respondError(c *gin.Context, err error) {
	c.JSON(lifecycle.HTTPStatus(err), gin.H{
		"error":   string(lifecycle.ErrorKind(err)),
		"message": err.Error(),
	})
}

func currentUser(c *gin.Context) models.User {
	return c.MustGet("user").(models.User)
}
