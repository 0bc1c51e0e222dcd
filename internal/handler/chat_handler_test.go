package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/handler"
	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/service"
)

type stubChatService struct {
	authorizeErr error
	authorized   []string
	lastActor    service.Actor
	lastQuery    dto.ChatHistoryQuery
}

func (s *stubChatService) Authorize(_ context.Context, actor service.Actor, roomID string) error {
	s.lastActor = actor
	s.authorized = append(s.authorized, roomID)
	return s.authorizeErr
}

func (s *stubChatService) ServeConnection(*websocket.Conn, service.ChatConnectionOptions) {}

func (s *stubChatService) History(_ context.Context, actor service.Actor, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error) {
	s.lastActor = actor
	s.lastQuery = query
	return []dto.ChatMessageResponse{{ID: 1, RoomID: query.RoomID, SenderID: "teacher:2", Content: "Welcome", Type: "text"}}, nil
}

func (s *stubChatService) Start(context.Context) {}

func chatApp(svc service.ChatService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(9))
		c.Locals(middleware.LocalUserRole, middleware.RoleStudent)
		return c.Next()
	})
	handler.NewChatHandler(svc, zerolog.Nop()).Register(app)
	return app
}

func websocketRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

func TestChatWebsocketRequiresUpgrade(t *testing.T) {
	resp, err := chatApp(&stubChatService{}).Test(httptest.NewRequest(http.MethodGet, "/chat/ws?room_id=course:1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestChatWebsocketAuthorizesBeforeUpgrade(t *testing.T) {
	svc := &stubChatService{authorizeErr: service.ErrUnauthorized}
	app := chatApp(svc)

	resp, err := app.Test(websocketRequest("/chat/ws?room_id=course:4"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, []string{"course:4"}, svc.authorized)
	require.Equal(t, service.Actor{ID: 9, Role: middleware.RoleStudent}, svc.lastActor)

	svc.authorizeErr = service.ErrInvalidRoom
	resp, err = app.Test(websocketRequest("/chat/ws?room_id=lobby"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(websocketRequest("/chat/ws"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatHistoryParsesQuery(t *testing.T) {
	svc := &stubChatService{}
	app := chatApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/chat/history?room_id=course:3&limit=20&before=2026-09-01T08:00:00Z", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[[]dto.ChatMessageResponse]
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "course:3", svc.lastQuery.RoomID)
	require.Equal(t, 20, svc.lastQuery.Limit)
	require.NotNil(t, svc.lastQuery.Before)
	require.True(t, svc.lastQuery.Before.Equal(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/chat/history?room_id=course:3&before=tomorrow", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
