package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lifeflow-server/internal/events"
	"lifeflow-server/internal/repository"
	"lifeflow-server/internal/services"
	"lifeflow-server/internal/transport/httpdto"
	"lifeflow-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	auth       *services.AuthService
	users      repository.UserRepository
	hub        *Hub
	authorizer *ChannelAuthorizer
	publisher  events.Publisher
	log        *logger.Logger
}

func NewHandler(auth *services.AuthService, users repository.UserRepository, hub *Hub, authorizer *ChannelAuthorizer, publisher events.Publisher, log *logger.Logger) *Handler {
	return &Handler{
		auth:       auth,
		users:      users,
		hub:        hub,
		authorizer: authorizer,
		publisher:  publisher,
		log:        log,
	}
}

// clientMessage is what clients send over the socket.
type clientMessage struct {
	Type           string    `json:"type"`
	Channel        string    `json:"channel,omitempty"`
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
	IsTyping       bool      `json:"is_typing,omitempty"`
}

func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	claims, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	if u, err := h.users.GetByID(c.Request.Context(), userID); err == nil {
		client.UserName = u.Name
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	h.hub.Subscribe(client, events.UserChannel(userID))
	go client.WriteLoop(ctx)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.handleClientMessage(ctx, client, data)
	}

	h.hub.Unregister(client)
}

func (h *Handler) handleClientMessage(ctx context.Context, client *Client, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "subscribe":
		ok, err := h.authorizer.CanSubscribe(ctx, client.UserID, msg.Channel)
		if err != nil {
			h.log.Warn("channel authorization failed", zap.Error(err), zap.String("channel", msg.Channel))
			return
		}
		if ok {
			h.hub.Subscribe(client, msg.Channel)
		}
	case "unsubscribe":
		h.hub.Unsubscribe(client, msg.Channel)
	case "typing":
		h.publishTyping(ctx, client, msg)
	case "ping":
		client.SendMessage([]byte(`{"type":"pong"}`))
	}
}

// publishTyping relays a typing indicator. It is transient: nothing is
// persisted, the event just fans out to the conversation channel.
func (h *Handler) publishTyping(ctx context.Context, client *Client, msg clientMessage) {
	if msg.ConversationID == uuid.Nil {
		return
	}
	channel := events.ConversationChannel(msg.ConversationID)
	if !client.IsSubscribed(channel) {
		return
	}

	event := events.NewEvent(events.EventTypeTypingIndicator, events.TypingPayload{
		ConversationID: msg.ConversationID,
		UserID:         client.UserID,
		UserName:       client.UserName,
		IsTyping:       msg.IsTyping,
	})
	if err := h.publisher.Publish(ctx, channel, event); err != nil {
		h.log.Warn("failed to publish typing indicator", zap.Error(err))
	}
}
