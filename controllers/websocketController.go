// controllers/websocketController.go
package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"impressive-vote/models"
)

// WebSocketController handles the push-style surface. Inbound operation
// events map onto the same GameManager methods as the HTTP handlers;
// failures go back to the originating observer only, never broadcast.
// All replies are routed through the hub, which skips clients that were
// dropped mid-request.
type WebSocketController struct {
	Hub      *models.Hub
	Manager  *GameManager
	upgrader websocket.Upgrader
}

// NewWebSocketController returns a new WebSocketController instance.
func NewWebSocketController(hub *models.Hub, gm *GameManager) *WebSocketController {
	return &WebSocketController{
		Hub:     hub,
		Manager: gm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Allow all origins for simplicity; adjust in production
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Serve upgrades the connection, registers the observer, and sends the
// current snapshot so a (re)connecting client never needs event replay.
func (wc *WebSocketController) Serve(c *gin.Context) {
	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &models.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan models.WSMessage, 256),
		Role: models.RoleUser,
	}
	wc.Hub.Add(client)
	go client.WritePump()

	wc.Hub.Send(client, models.WSMessage{Event: "welcome", Data: "connected to server"})
	wc.Hub.Send(client, models.WSMessage{Event: "gameStateChanged", Data: wc.Manager.PublicState("")})

	wc.readLoop(client)
}

func (wc *WebSocketController) readLoop(client *models.Client) {
	defer func() {
		wc.Hub.Remove(client)
		client.Conn.Close()
	}()
	for {
		var msg inboundMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("client", client.ID).Msg("read error")
			}
			return
		}
		wc.handle(client, msg)
	}
}

type loginPayload struct {
	Domain string `json:"domain"`
}

type votePayload struct {
	Domain  string `json:"domain"`
	MrName  string `json:"mrName"`
	MrsName string `json:"mrsName"`
}

// handle dispatches one inbound operation event. Replies that carry a
// failure or a personal acknowledgment go only to this client's session.
func (wc *WebSocketController) handle(client *models.Client, msg inboundMessage) {
	switch msg.Event {
	case "userLogin":
		var payload loginPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.Domain == "" {
			wc.Hub.Send(client, errorMessage(models.ErrInvalidInput.Error()))
			return
		}
		client.Domain = payload.Domain
		state := wc.Manager.PublicState(payload.Domain)
		wc.Hub.Send(client, models.WSMessage{Event: "userLoginSuccess", Data: gin.H{
			"domain":   payload.Domain,
			"hasVoted": state.HasVoted,
		}})
		wc.Hub.Send(client, models.WSMessage{Event: "gameStateChanged", Data: state})

	case "submitVote":
		var payload votePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			wc.Hub.Send(client, models.WSMessage{Event: "voteError", Data: gin.H{"message": models.ErrInvalidInput.Error()}})
			return
		}
		if payload.Domain == "" {
			payload.Domain = client.Domain
		}
		if err := wc.Manager.CastVote(payload.Domain, payload.MrName, payload.MrsName); err != nil {
			wc.Hub.Send(client, models.WSMessage{Event: "voteError", Data: gin.H{"message": err.Error()}})
			return
		}
		wc.Hub.Send(client, models.WSMessage{Event: "voteSuccess", Data: gin.H{
			"domain":   payload.Domain,
			"hasVoted": true,
		}})

	case "getResults":
		results, err := wc.Manager.Results()
		if err != nil {
			wc.Hub.Send(client, errorMessage(err.Error()))
			return
		}
		wc.Hub.Send(client, models.WSMessage{Event: "resultsReady", Data: results})

	case "adminConnected":
		wc.Hub.SetRole(client, models.RoleAdmin)
		wc.Hub.Send(client, models.WSMessage{Event: "adminGameState", Data: wc.Manager.AdminState()})

	case "startGame":
		if wc.Hub.RoleOf(client) != models.RoleAdmin {
			wc.Hub.Send(client, errorMessage("admin only"))
			return
		}
		if _, err := wc.Manager.Start(); err != nil {
			wc.Hub.Send(client, errorMessage(err.Error()))
		}

	case "resetGame":
		if wc.Hub.RoleOf(client) != models.RoleAdmin {
			wc.Hub.Send(client, errorMessage("admin only"))
			return
		}
		wc.Manager.Reset()

	default:
		log.Debug().Str("event", msg.Event).Msg("unknown websocket event")
	}
}

func errorMessage(message string) models.WSMessage {
	return models.WSMessage{Event: "error", Data: gin.H{"message": message}}
}
