package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumify/internal/auth"
	"resumify/internal/errcode"
	"resumify/internal/ratelimit"
	"resumify/internal/thumbnail"
)

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			return c
		}
	}
	t.Fatalf("refresh cookie not set")
	return nil
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)
	user, _ := h.createUser("writer@example.com", true)

	rec := h.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "writer@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "nobody@example.com", "password": "correct horse"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "not-an-email", "password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "Writer@Example.com", "password": "correct horse"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[tokenResponse](t, rec)
	assert.Equal(t, "Bearer", body.TokenType)
	assert.Equal(t, 900, body.ExpiresIn)
	assert.Equal(t, user.ID, body.User.ID)
	assert.True(t, body.User.IsPremium)

	claims, err := h.auth.ValidateToken(body.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.True(t, claims.IsPremium)

	cookie := refreshCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	rec = h.do(http.MethodGet, "/v1/auth/me", nil, body.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "writer@example.com", decode[userResponse](t, rec).Email)
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.LoginLimiter = ratelimit.NewMemory(2, time.Hour) })
	h.createUser("writer@example.com", false)

	creds := map[string]string{"email": "writer@example.com", "password": "wrong"}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/v1/auth/login", creds, "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/v1/auth/login", creds, "").Code)

	rec := h.do(http.MethodPost, "/v1/auth/login", creds, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.EqualValues(t, errcode.RateLimited, decode[map[string]any](t, rec)["code"])
}

func TestRefreshRotatesToken(t *testing.T) {
	h := newHarness(t)
	user, _ := h.createUser("writer@example.com", false)

	pair, err := h.auth.GenerateTokenPair(auth.Identity{UserID: user.ID})
	require.NoError(t, err)

	rec := h.do(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[tokenResponse](t, rec).AccessToken)

	// 旧令牌已作废。
	rec = h.do(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 访问令牌不能用来刷新。
	rec = h.do(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": pair.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/v1/auth/refresh", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshPicksUpPremiumChange(t *testing.T) {
	h := newHarness(t)
	user, _ := h.createUser("writer@example.com", false)
	pair, err := h.auth.GenerateTokenPair(auth.Identity{UserID: user.ID})
	require.NoError(t, err)

	require.NoError(t, h.db.Model(&user).Update("is_premium", true).Error)

	rec := h.do(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	claims, err := h.auth.ValidateToken(decode[tokenResponse](t, rec).AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.True(t, claims.IsPremium)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	h := newHarness(t)
	user, _ := h.createUser("writer@example.com", false)
	pair, err := h.auth.GenerateTokenPair(auth.Identity{UserID: user.ID})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookieName, Value: pair.RefreshToken})
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, refreshCookie(t, rec).MaxAge)

	rec = h.do(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func dialWS(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestWebSocketGuestResize(t *testing.T) {
	h := newHarness(t)
	conn := dialWS(t, h)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "guest"}))
	var ready wsReady
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, "ready", ready.Type)
	assert.True(t, ready.Guest)
	assert.Equal(t, thumbnail.InitialScale, ready.Scale)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "resize", Width: 397}))
	var scale wsScale
	require.NoError(t, conn.ReadJSON(&scale))
	assert.Equal(t, "scale", scale.Type)
	assert.Equal(t, 0.5, scale.Scale)
	assert.Equal(t, "scale(0.5)", scale.Transform)
	assert.Equal(t, 397, scale.Width)
}

func TestWebSocketAuthenticated(t *testing.T) {
	h := newHarness(t)
	_, token := h.createUser("writer@example.com", false)
	conn := dialWS(t, h)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "auth", Token: token}))
	var ready wsReady
	require.NoError(t, conn.ReadJSON(&ready))
	assert.False(t, ready.Guest)
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	h := newHarness(t)
	conn := dialWS(t, h)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "auth", Token: "garbage"}))
	var ready wsReady
	err := conn.ReadJSON(&ready)
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), err.Error())
}
