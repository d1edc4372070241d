package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/config"
)

const testSecret = "test-secret"

func init() {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validToken(t *testing.T, userID string) string {
	return signToken(t, testSecret, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

func newAuthApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/protected", handler, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": UserID(c)})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := newAuthApp(AuthRequired)

	request := func(authHeader string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, request("").StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, request("NotBearer abc").StatusCode)
		assert.Equal(t, fiber.StatusUnauthorized, request("Bearer").StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, request("Bearer not.a.jwt").StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "some-other-secret", jwt.MapClaims{
			"sub": "mod-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		assert.Equal(t, fiber.StatusUnauthorized, request("Bearer "+token).StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "mod-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		assert.Equal(t, fiber.StatusUnauthorized, request("Bearer "+token).StatusCode)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		assert.Equal(t, fiber.StatusUnauthorized, request("Bearer "+token).StatusCode)
	})

	t.Run("valid token sets user id", func(t *testing.T) {
		resp := request("Bearer " + validToken(t, "mod-1"))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := make([]byte, 64)
		n, _ := resp.Body.Read(body)
		assert.Contains(t, string(body[:n]), "mod-1")
	})
}

func TestWebSocketAuthRequired(t *testing.T) {
	app := newAuthApp(WebSocketAuthRequired)

	t.Run("query token accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected?token="+validToken(t, "mod-2"), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("header fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, "mod-2"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("no token anywhere", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid query token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected?token=bogus", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
