package routes

import (
	"github.com/gin-gonic/gin"

	"impressive-vote/controllers"
)

// GameRoutes registers the polling-style operation API.
func GameRoutes(r *gin.Engine, gc *controllers.GameController) {
	api := r.Group("/api")
	{
		api.GET("/game-state", gc.GetGameState)
		api.POST("/start", gc.StartGame)
		api.POST("/vote", gc.SubmitVote)
		api.GET("/results", gc.GetResults)
		api.POST("/reset", gc.ResetGame)
	}
}
