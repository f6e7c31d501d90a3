package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/auth"
	"github.com/01moynul/artisansloom-golang/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Error struct {
		Status  string         `json:"status"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return tokens
}

func mint(t *testing.T, tokens *auth.TokenManager, uid string, role models.Role) string {
	t.Helper()
	token, err := tokens.GenerateToken(models.Caller{UID: uid, Role: role})
	require.NoError(t, err)
	return token
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func whoami(c *gin.Context) {
	caller, ok := CallerFrom(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"uid": ""})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": caller.UID})
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	r := gin.New()
	r.POST("/v1/getCart", AuthMiddleware(tokens), whoami)

	t.Run("valid token", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/v1/getCart", mint(t, tokens, "buyer-1", models.RoleCustomer))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"uid":"buyer-1"}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/v1/getCart", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHENTICATED", decodeError(t, w).Error.Status)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/v1/getCart", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/getCart", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens(t)
	r := gin.New()
	r.POST("/v1/listAuctions", OptionalAuth(tokens), whoami)

	w := serve(r, http.MethodPost, "/v1/listAuctions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":""}`, w.Body.String())

	w = serve(r, http.MethodPost, "/v1/listAuctions", mint(t, tokens, "buyer-2", models.RoleCustomer))
	assert.JSONEq(t, `{"uid":"buyer-2"}`, w.Body.String())

	w = serve(r, http.MethodPost, "/v1/listAuctions", "tampered")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := newTokens(t)
	r := gin.New()
	r.POST("/v1/appraiseAuctionPiece", AuthMiddleware(tokens), RequireRole(models.RoleAdmin), whoami)

	w := serve(r, http.MethodPost, "/v1/appraiseAuctionPiece", mint(t, tokens, "admin-1", models.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/v1/appraiseAuctionPiece", mint(t, tokens, "artisan-1", models.RoleArtisan))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", decodeError(t, w).Error.Status)
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRateLimiter_Allow(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRateLimiter(client, 2, time.Minute, zap.NewNop())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := t.Context()
	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "uid:buyer-1", "/v1/placeBid")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "uid:buyer-1", "/v1/placeBid")
	require.NoError(t, err)
	assert.False(t, ok, "third request in the window is rejected")

	ok, err = limiter.Allow(ctx, "uid:buyer-2", "/v1/placeBid")
	require.NoError(t, err)
	assert.True(t, ok, "other callers have their own window")

	ok, err = limiter.Allow(ctx, "uid:buyer-1", "/v1/getCart")
	require.NoError(t, err)
	assert.True(t, ok, "other operations have their own window")

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	now = now.Add(time.Minute)
	ok, err = limiter.Allow(ctx, "uid:buyer-1", "/v1/placeBid")
	require.NoError(t, err)
	assert.True(t, ok, "next window starts fresh")
}

func TestRateLimiter_Middleware(t *testing.T) {
	_, client := setupTestRedis(t)
	tokens := newTokens(t)
	limiter := NewRateLimiter(client, 1, time.Minute, zap.NewNop())

	r := gin.New()
	r.POST("/v1/placeBid", AuthMiddleware(tokens), limiter.Middleware(), whoami)
	token := mint(t, tokens, "buyer-1", models.RoleCustomer)

	w := serve(r, http.MethodPost, "/v1/placeBid", token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/v1/placeBid", token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RESOURCE_EXHAUSTED", decodeError(t, w).Error.Status)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRateLimiter(client, 1, time.Minute, zap.NewNop())
	mr.Close()

	r := gin.New()
	r.POST("/v1/getCart", limiter.Middleware(), whoami)

	w := serve(r, http.MethodPost, "/v1/getCart", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(nil, 0, time.Minute, nil)
	ok, err := limiter.Allow(t.Context(), "ip:127.0.0.1", "/v1/getCart")
	require.NoError(t, err)
	assert.True(t, ok)
}
