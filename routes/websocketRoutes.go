package routes

import (
	"github.com/gin-gonic/gin"

	"impressive-vote/controllers"
)

// WebSocketRoutes registers the push-style transport endpoint.
func WebSocketRoutes(r *gin.Engine, wc *controllers.WebSocketController) {
	r.GET("/ws", wc.Serve)
}
