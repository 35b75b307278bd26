// controllers/gameController.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"impressive-vote/models"
)

// GameController handles the polling-style HTTP surface. Each handler
// maps 1:1 onto a GameManager method; the only added responsibility is
// translating domain failures into response codes.
type GameController struct {
	Manager *GameManager
}

// NewGameController returns a new GameController instance.
func NewGameController(gm *GameManager) *GameController {
	return &GameController{Manager: gm}
}

// GetGameState handles GET /api/game-state. The optional domain query
// parameter scopes the hasVoted flag to that voter.
func (gc *GameController) GetGameState(c *gin.Context) {
	state := gc.Manager.PublicState(c.Query("domain"))
	c.JSON(http.StatusOK, state)
}

// StartGame handles POST /api/start.
func (gc *GameController) StartGame(c *gin.Context) {
	startTime, err := gc.Manager.Start()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "startTime": startTime})
}

type voteRequest struct {
	Domain  string `json:"domain"`
	MrName  string `json:"mrName"`
	MrsName string `json:"mrsName"`
}

// SubmitVote handles POST /api/vote.
func (gc *GameController) SubmitVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": models.ErrInvalidInput.Error()})
		return
	}
	if err := gc.Manager.CastVote(req.Domain, req.MrName, req.MrsName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetResults handles GET /api/results. Forbidden until the game is
// finished.
func (gc *GameController) GetResults(c *gin.Context) {
	results, err := gc.Manager.Results()
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// ResetGame handles POST /api/reset. Always succeeds.
func (gc *GameController) ResetGame(c *gin.Context) {
	gc.Manager.Reset()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Game reset"})
}
