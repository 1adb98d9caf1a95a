package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/infrastructure/auth"
	"github.com/opsledger/backend/internal/infrastructure/config"
	"github.com/opsledger/backend/internal/infrastructure/logger"
	"github.com/opsledger/backend/internal/interfaces/http/dto"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  accessTTL,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"operator_id": GetJWTOperatorID(c),
			"username":    GetJWTUsername(c),
			"actor":       logger.GetActorID(c.Request.Context()),
		})
	})
	return router
}

func bearer(token string) map[string]string {
	return map[string]string{AuthHeaderKey: BearerPrefix + token}
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	operatorID := uuid.New()
	pair, err := jwtService.GenerateTokenPair(operatorID, "ana.souza")
	require.NoError(t, err)

	w := testutil.PerformRequest(t, newJWTRouter(DefaultJWTConfig(jwtService)), http.MethodGet, "/test", nil, bearer(pair.AccessToken))

	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.DecodeJSON[map[string]string](t, w)
	assert.Equal(t, operatorID.String(), body["operator_id"])
	assert.Equal(t, "ana.souza", body["username"])
	assert.Equal(t, operatorID.String(), body["actor"])
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	pair, err := jwtService.GenerateTokenPair(uuid.New(), "ana.souza")
	require.NoError(t, err)
	expired, err := newTestJWTService(-time.Minute).GenerateTokenPair(uuid.New(), "ana.souza")
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		code    string
	}{
		{"missing header", nil, dto.ErrCodeTokenInvalid},
		{"wrong scheme", map[string]string{AuthHeaderKey: "Basic abc"}, dto.ErrCodeTokenInvalid},
		{"empty token", map[string]string{AuthHeaderKey: BearerPrefix}, dto.ErrCodeTokenInvalid},
		{"garbage token", bearer("not-a-jwt"), dto.ErrCodeTokenInvalid},
		{"refresh token as access token", bearer(pair.RefreshToken), dto.ErrCodeTokenInvalid},
		{"expired token", bearer(expired.AccessToken), dto.ErrCodeTokenExpired},
	}
	router := newJWTRouter(DefaultJWTConfig(jwtService))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.PerformRequest(t, router, http.MethodGet, "/test", nil, tt.headers)
			testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, tt.code)
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := newJWTRouter(DefaultJWTConfig(newTestJWTService(time.Minute)))

	w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Blacklist(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	operatorID := uuid.New()
	pair, err := jwtService.GenerateTokenPair(operatorID, "ana.souza")
	require.NoError(t, err)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	t.Run("revoked jti", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))
		cfg := DefaultJWTConfig(jwtService)
		cfg.TokenBlacklist = blacklist

		w := testutil.PerformRequest(t, newJWTRouter(cfg), http.MethodGet, "/test", nil, bearer(pair.AccessToken))

		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
	})

	t.Run("operator tokens invalidated", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.AddOperatorTokensToBlacklist(context.Background(), operatorID.String(), time.Hour))
		cfg := DefaultJWTConfig(jwtService)
		cfg.TokenBlacklist = blacklist

		w := testutil.PerformRequest(t, newJWTRouter(cfg), http.MethodGet, "/test", nil, bearer(pair.AccessToken))

		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
	})

	t.Run("other tokens still pass", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.AddToBlacklist(context.Background(), uuid.NewString(), time.Hour))
		cfg := DefaultJWTConfig(jwtService)
		cfg.TokenBlacklist = blacklist

		w := testutil.PerformRequest(t, newJWTRouter(cfg), http.MethodGet, "/test", nil, bearer(pair.AccessToken))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(nil)

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTOperatorID(c))
	assert.Empty(t, GetJWTUsername(c))
}
