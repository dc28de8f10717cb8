package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/supportdesk/ticketd/internal/observability"
	apperrors "github.com/supportdesk/ticketd/pkg/util/errorutil"
)

type errorEnvelope struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		Retryable bool           `json:"retryable"`
	} `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, *observability.Metrics) {
	t.Helper()
	app := fiber.New()
	metrics := observability.NewMetrics()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	return app, metrics
}

func decodeError(t *testing.T, body io.Reader) errorEnvelope {
	t.Helper()
	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	return envelope
}

func TestErrorMiddlewareTranslatesDomainErrors(t *testing.T) {
	app, metrics := newTestApp(t)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": "t-1"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 404, resp.StatusCode)
	envelope := decodeError(t, resp.Body)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	assert.Equal(t, "ticket not found", envelope.Error.Message)
	assert.Equal(t, "t-1", envelope.Error.Details["ticket_id"])
	assert.False(t, envelope.Error.Retryable)
	assert.Equal(t, int64(1), metrics.ErrorTotal("/missing", "GET", "NOT_FOUND"))
}

func TestErrorMiddlewareFlagsRetryableErrors(t *testing.T) {
	app, _ := newTestApp(t)
	app.Post("/exhausted", func(c *fiber.Ctx) error {
		return apperrors.NewGenerationExhausted(5)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/exhausted", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 503, resp.StatusCode)
	envelope := decodeError(t, resp.Body)
	assert.Equal(t, "GENERATION_EXHAUSTED", envelope.Error.Code)
	assert.True(t, envelope.Error.Retryable)
}

func TestErrorMiddlewareWrapsUnknownErrors(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/oops", func(c *fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/oops", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 500, resp.StatusCode)
	envelope := decodeError(t, resp.Body)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
	// raw error text never leaks to clients
	assert.Equal(t, "internal server error", envelope.Error.Message)
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 500, resp.StatusCode)
	envelope := decodeError(t, resp.Body)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
}

func TestSuccessPassesThrough(t *testing.T) {
	app, metrics := newTestApp(t)
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int64(1), metrics.RequestTotal("/ok", "GET", 200))
}
