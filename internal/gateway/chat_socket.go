package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spotsnack/backend/internal/auth"
	"github.com/spotsnack/backend/internal/models"
)

const maxChatFrameBytes = 1 << 20

// ChatReply is the frame written back for every chat frame received
type ChatReply struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

// ChatSocket serves chat over a WebSocket, one invocation per received frame
type ChatSocket struct {
	handler  *Handler
	tracer   trace.Tracer
	upgrader websocket.Upgrader
}

// NewChatSocket creates a chat socket accepting browser connections from allowedOrigin
func NewChatSocket(handler *Handler, allowedOrigin string) *ChatSocket {
	return &ChatSocket{
		handler: handler,
		tracer:  otel.Tracer("chat-socket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// native clients send no Origin header
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Stream handles WebSocket /ws/chat
// @Summary Chat over WebSocket
// @Description Each text frame is a chat request body; each reply frame carries the HTTP-equivalent status and body.
// @Tags interpreter
// @Success 101 "Switching Protocols"
// @Router /ws/chat [get]
func (s *ChatSocket) Stream(c *gin.Context) {
	ctx, span := s.tracer.Start(detach(c), "chat_socket.stream")
	defer span.End()

	userID := auth.UserID(c)
	if userID != "" {
		span.SetAttributes(attribute.String("user.id", userID))
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"warn","message":"Failed to upgrade connection","error":"%v"}`, err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxChatFrameBytes)

	frames := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf(`{"level":"warn","message":"Chat socket closed unexpectedly","error":"%v"}`, err)
			}
			break
		}
		frames++

		reply := ChatReply{
			Status: http.StatusBadRequest,
			Body:   gin.H{"error": models.ErrMessageRequired},
		}

		var body ChatRequestBody
		if err := json.Unmarshal(data, &body); err == nil {
			if req, err := body.toRequest(); err == nil {
				reply.Status, reply.Body = s.handler.run(ctx, req, userID)
			}
		}

		if err := conn.WriteJSON(reply); err != nil {
			span.RecordError(err)
			log.Printf(`{"level":"warn","message":"Failed to write chat reply","error":"%v"}`, err)
			break
		}
	}

	span.SetAttributes(attribute.Int("chat_socket.frames", frames))
}
