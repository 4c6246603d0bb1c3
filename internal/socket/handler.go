package socket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Authenticator resolves a session token to a user id.
type Authenticator func(token string) (string, error)

// Handler upgrades authenticated HTTP requests to websocket clients.
type Handler struct {
	hub          *Hub
	authenticate Authenticator
	policy       MessagePolicy
	upgrader     websocket.Upgrader
}

func NewHandler(hub *Hub, authenticate Authenticator, policy MessagePolicy) *Handler {
	return &Handler{
		hub:          hub,
		authenticate: authenticate,
		policy:       policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer on the HTTP routes.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket reads the token from the `token` query parameter, since
// browsers cannot set headers on websocket requests, or from a Bearer header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token provided"})
		return
	}

	userID, err := h.authenticate(tokenString)
	if err != nil {
		log.Debug().Err(err).Str("component", "socket").Msg("Rejected websocket handshake")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "socket").Msg("Upgrade failed")
		return
	}

	client := NewClient(h.hub, userID, conn, h.policy)
	if err := h.hub.Connect(client); err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		conn.Close()
		return
	}

	log.Info().Str("component", "socket").Str("user_id", userID).Str("conn_id", client.ID()).Msg("Client connected")

	go client.WritePump()
	go client.ReadPump()
}
