package router_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/config"
	"github.com/noah-isme/gema-school-api/internal/handler"
	"github.com/noah-isme/gema-school-api/internal/router"
)

func testApp() *fiber.App {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "School Test", AppEnv: "test", JWTSecret: "secret"}, router.Dependencies{})
	return app
}

func TestHealthIsPublic(t *testing.T) {
	resp, err := testApp().Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "School Test", resp.Header.Get("X-Application"))

	var body struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, "School Test", body.Data.Service)
	require.Equal(t, "test", body.Data.Environment)
}

func TestMetricsEndpointExposesCollectors(t *testing.T) {
	resp, err := testApp().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), "go_goroutines"))
}

func TestAPIDefaultsToJWTProtection(t *testing.T) {
	resp, err := testApp().Test(httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
