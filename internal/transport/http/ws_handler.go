package http

import (
	"log"
	"net/http"
	"strings"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler streams newly awarded badges to the authenticated user.
type WSHandler struct {
	hub      *app.AwardHub
	tokens   *auth.Tokens
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *app.AwardHub, tokens *auth.Tokens) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	UserID int64 `json:"userId"`
}

// ServeWS authenticates with ?token= (browsers cannot set headers on
// WebSocket handshakes) or a bearer header, then upgrades and relays awards.
func (h *WSHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	awards, cancel := h.hub.Subscribe(claims.UserID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	awardsDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(awardsDone)
		for {
			select {
			case award, ok := <-awards:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "badgeAwarded", Payload: award}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "subscribed", Payload: subscribedPayload{UserID: claims.UserID}}

	// Inbound frames carry nothing; reading detects the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-awardsDone
	close(send)
	<-writerDone
}
