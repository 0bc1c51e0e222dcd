package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/service"
	"github.com/noah-isme/gema-school-api/internal/utils"
)

const (
	localRequestCtx = "request_ctx"
	localChatActor  = "chat_actor"
	localChatRoom   = "chat_room"
)

// ChatHandler wires the course room websocket and its history endpoint.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Use("/chat/ws", h.authorizeUpgrade)
	router.Get("/chat/ws", websocket.New(h.handleConnection))
	router.Get("/chat/history", h.history)
}

// authorizeUpgrade rejects the handshake before upgrading when the caller
// cannot read the requested room.
func (h *ChatHandler) authorizeUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	roomID := strings.TrimSpace(c.Query("room_id"))
	if roomID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "room_id required")
	}

	ctx := requestContext(c)
	actor := actorFromContext(c)
	if err := h.service.Authorize(ctx, actor, roomID); err != nil {
		return respondError(c, h.logger, err)
	}

	c.Locals(localRequestCtx, ctx)
	c.Locals(localChatActor, actor)
	c.Locals(localChatRoom, roomID)
	return c.Next()
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	actor, ok := conn.Locals(localChatActor).(service.Actor)
	if !ok || actor.ID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthenticated"))
		_ = conn.Close()
		return
	}

	roomID, _ := conn.Locals(localChatRoom).(string)
	baseCtx, _ := conn.Locals(localRequestCtx).(context.Context)
	correlation := middleware.CorrelationIDFromContext(baseCtx)

	opts := service.ChatConnectionOptions{
		Actor:         actor,
		RoomID:        roomID,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("subject", actor.Subject()).Str("room_id", roomID).Msg("chat websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("subject", actor.Subject()).Str("room_id", roomID).Msg("chat websocket disconnected")
}

func (h *ChatHandler) history(c *fiber.Ctx) error {
	before, err := parseQueryTime(c, "before")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	query := dto.ChatHistoryQuery{
		RoomID: strings.TrimSpace(c.Query("room_id")),
		Before: before,
		Limit:  limit,
	}

	messages, err := h.service.History(requestContext(c), actorFromContext(c), query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "chat history", messages)
}
