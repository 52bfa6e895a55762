package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumify/internal/api/middleware"
	"resumify/internal/auth"
	"resumify/internal/database"
	"resumify/internal/errcode"
	"resumify/internal/ratelimit"
)

const refreshTokenCookieName = "refresh_token"
const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"

// Revoker 维护已作废刷新令牌的 jti。
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

type blacklistClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRevoker 把作废的 jti 存到 Redis，过期时间与令牌剩余寿命一致。
type RedisRevoker struct {
	client blacklistClient
}

func NewRedisRevoker(client blacklistClient) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, refreshTokenBlacklistKeyPrefix+jti, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, refreshTokenBlacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("lookup refresh blacklist: %w", err)
	}
	return n > 0, nil
}

// AuthHandler 处理登录、刷新、退出。账号由管理命令创建。
type AuthHandler struct {
	db          *gorm.DB
	authService *auth.AuthService
	revoker     Revoker
	limiter     ratelimit.Limiter
	logger      *slog.Logger
}

func NewAuthHandler(db *gorm.DB, authService *auth.AuthService, revoker Revoker, limiter ratelimit.Limiter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authService: authService,
		revoker:     revoker,
		limiter:     limiter,
		logger:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsPremium bool   `json:"isPremium"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        userResponse `json:"user"`
}

// Login 校验口令并返回 Token。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, "login:"+c.ClientIP()+":"+email)
		if err != nil {
			logger.Warn("login rate limit check failed", slog.Any("error", err))
		} else if !allowed {
			ErrorCode(c, http.StatusTooManyRequests, errcode.RateLimited, "rate limit exceeded")
			return
		}
	}

	var user database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("login failed: user not found")
			Unauthorized(c)
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("user_id", uint64(user.ID)))
		Unauthorized(c)
		return
	}

	h.issue(c, logger, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 校验刷新令牌并颁发新的 TokenPair，会员状态以数据库为准。
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	claims, err := h.authService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		logger.Info("refresh token invalid", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if claims.ID == "" {
		logger.Info("refresh token missing jti")
		Unauthorized(c)
		return
	}

	revoked, err := h.revoker.Revoked(ctx, claims.ID)
	if err != nil {
		logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if revoked {
		logger.Info("refresh token revoked", slog.String("jti", claims.ID))
		Unauthorized(c)
		return
	}

	var user database.User
	if err := h.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		logger.Info("refresh user not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}

	// 旋转旧刷新令牌，防止重复使用。
	if err := h.revoker.Revoke(ctx, claims.ID, h.remaining(claims.ExpiresAt)); err != nil {
		logger.Error("refresh revoke old token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.issue(c, logger, user)
}

// Logout 将刷新令牌加入黑名单并清除 Cookie。令牌无效时同样视为已退出。
func (h *AuthHandler) Logout(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)
	if refreshToken := h.extractRefreshToken(c); refreshToken != "" {
		claims, err := h.authService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
		if err == nil && claims.ID != "" {
			if err := h.revoker.Revoke(c.Request.Context(), claims.ID, h.remaining(claims.ExpiresAt)); err != nil {
				logger.Error("logout revoke token failed", slog.Any("error", err))
				Internal(c, "internal error")
				return
			}
		}
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Status(http.StatusOK)
}

// Me 返回当前用户的最新资料。
func (h *AuthHandler) Me(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	if id == nil {
		AbortUnauthorized(c)
		return
	}
	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Unauthorized(c)
			return
		}
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(u database.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, IsPremium: u.IsPremium}
}

func (h *AuthHandler) issue(c *gin.Context, logger *slog.Logger, user database.User) {
	tokenPair, err := h.authService.GenerateTokenPair(auth.Identity{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsPremium: user.IsPremium,
	})
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.setRefreshCookie(c, tokenPair.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: tokenPair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.authService.AccessTokenTTL().Seconds()),
		User:        toUserResponse(user),
	})
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}
	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err == nil {
			return req.RefreshToken
		}
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	ttl := h.authService.RefreshTokenTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		MaxAge:   int(ttl.Seconds()),
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
}

func (h *AuthHandler) remaining(expiresAt *jwt.NumericDate) time.Duration {
	if expiresAt == nil {
		return h.authService.RefreshTokenTTL()
	}
	return time.Until(expiresAt.Time)
}

func isHTTPSRequest(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
