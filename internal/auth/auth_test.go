package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/models"
	"asset-tracker/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Username: "alice", Role: models.RoleUser, Branch: "Eng"}
	tok, err := GenerateToken(testutil.Secret, time.Hour, user)
	require.NoError(t, err)

	claims, err := ParseToken(testutil.Secret, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "Eng", claims.Branch)
	assert.NotEmpty(t, claims.ID)

	other, err := GenerateToken(testutil.Secret, time.Hour, user)
	require.NoError(t, err)
	otherClaims, err := ParseToken(testutil.Secret, other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestParseTokenRejects(t *testing.T) {
	user := &models.User{ID: 1, Username: "bob", Role: models.RoleAdmin}

	expired, err := GenerateToken(testutil.Secret, -time.Minute, user)
	require.NoError(t, err)
	_, err = ParseToken(testutil.Secret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	valid, err := GenerateToken(testutil.Secret, time.Hour, user)
	require.NoError(t, err)
	_, err = ParseToken("another-secret", valid)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTCustomClaims{UserID: 1, Role: models.RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(testutil.Secret, unsigned)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	store, cfg := testutil.Store(t)
	testutil.CreateUser(t, store, "carol", models.RoleUser)

	resp, err := Login(store, cfg, LoginRequest{Username: " carol ", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "carol", resp.User.Username)
	claims, err := ParseToken(cfg.JWTSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = Login(store, cfg, LoginRequest{Username: "carol", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = Login(store, cfg, LoginRequest{Username: "nobody", Password: "password"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func testApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *apperr.Error
			if errors.As(err, &e) {
				return c.SendStatus(e.Status())
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	app.Use(JWTMiddleware(testutil.Secret))
	app.Get("/me", func(c *fiber.Ctx) error {
		p, err := MustPrincipal(c)
		if err != nil {
			return err
		}
		return c.JSON(p)
	})
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestMiddleware(t *testing.T) {
	app := testApp()
	userTok, err := GenerateToken(testutil.Secret, time.Hour, &models.User{ID: 2, Username: "u", Role: models.RoleUser})
	require.NoError(t, err)
	adminTok, err := GenerateToken(testutil.Secret, time.Hour, &models.User{ID: 1, Username: "a", Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + userTok, fiber.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", fiber.StatusUnauthorized},
		{"user ok", "/me", "Bearer " + userTok, fiber.StatusOK},
		{"lowercase scheme", "/me", "bearer " + userTok, fiber.StatusOK},
		{"user on admin route", "/admin", "Bearer " + userTok, fiber.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + adminTok, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
