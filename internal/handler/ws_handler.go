package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/dealership-api/internal/websocket"
	"github.com/yourusername/dealership-api/pkg/auth"
)

// WSHandler upgrades dashboard connections and attaches them to the hub.
type WSHandler struct {
	hub        *websocket.Hub
	jwtService *auth.JWTService
}

func NewWSHandler(hub *websocket.Hub, jwtService *auth.JWTService) *WSHandler {
	return &WSHandler{hub: hub, jwtService: jwtService}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Non-browser clients send no Origin.
		return true
	},
}

// Handle serves GET /ws. Browsers cannot set an Authorization header on
// the websocket handshake, so the JWT arrives as a query parameter.
func (h *WSHandler) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	claims, err := h.jwtService.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] upgrade failed for user %d: %v", claims.UserID, err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), claims.UserID, h.hub, conn)
	client.Start()
}
