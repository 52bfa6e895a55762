package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"resumify/internal/auth"
	"resumify/internal/thumbnail"
	"resumify/internal/worker"
)

const (
	wsWriteWait    = 5 * time.Second
	wsPingInterval = 30 * time.Second
	wsAuthTimeout  = 10 * time.Second
)

// WsHandler 负责 WebSocket 握手、导出通知转发与缩略图缩放同步。
type WsHandler struct {
	redisClient    *redis.Client
	validator      TokenValidator
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// TokenValidator 是 *auth.AuthService 校验令牌的部分。
type TokenValidator interface {
	ValidateToken(tokenString, wantType string) (*auth.TokenClaims, error)
}

// NewWsHandler 构造 WebSocket 处理器。redisClient 为 nil 时不转发导出通知。
func NewWsHandler(redisClient *redis.Client, validator TokenValidator, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		validator:      validator,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

// wsInbound 是客户端发来的消息。
type wsInbound struct {
	Type  string  `json:"type"`
	Token string  `json:"token,omitempty"`
	Width float64 `json:"width,omitempty"`
}

type wsReady struct {
	Type  string  `json:"type"`
	Guest bool    `json:"guest"`
	Scale float64 `json:"scale"`
}

type wsScale struct {
	Type      string  `json:"type"`
	Scale     float64 `json:"scale"`
	Transform string  `json:"transform"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// wsConn 串行化写操作，gorilla/websocket 不允许并发写。
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) writeText(payload string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

func (w *wsConn) ping() error {
	return w.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteWait))
}

func (w *wsConn) close(code int, text string) {
	_ = w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteWait))
}

// HandleConnection 升级连接。首条消息必须是 {"type":"auth","token":...} 或 {"type":"guest"}，
// 之后服务端推送导出进度，客户端可发送 {"type":"resize","width":...} 同步缩略图比例。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseLog := h.logger.With(slog.String("client_ip", c.ClientIP()))

	id, err := h.handshake(conn)
	if err != nil {
		baseLog.Warn("websocket authentication failed", slog.Any("error", err))
		conn.close(websocket.ClosePolicyViolation, "unauthorized")
		return
	}
	key := auth.Key(id, c.ClientIP())
	log := baseLog.With(slog.String("client_key", key))

	scaler := thumbnail.NewScaler()
	if err := conn.writeJSON(wsReady{Type: "ready", Guest: id == nil, Scale: scaler.Scale()}); err != nil {
		return
	}

	errCh := make(chan error, 3)
	widths := make(chan float64, 8)

	go h.readLoop(ctx, conn, widths, errCh)
	go func() {
		errCh <- scaler.Watch(ctx, widths, func(scale float64) {
			w, hgt := thumbnail.Size(scale)
			if err := conn.writeJSON(wsScale{
				Type:      "scale",
				Scale:     scale,
				Transform: thumbnail.Transform(scale),
				Width:     w,
				Height:    hgt,
			}); err != nil {
				cancel()
			}
		})
	}()
	go h.subscribeLoop(ctx, conn, key, errCh, log)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Info("websocket connection closed", slog.Any("error", err))
		} else {
			log.Info("websocket connection closed")
		}
	}
}

// handshake 读取首条消息并返回身份，访客返回 nil。
func (h *WsHandler) handshake(conn *wsConn) (*auth.Identity, error) {
	_ = conn.conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	defer conn.conn.SetReadDeadline(time.Time{})

	var msg wsInbound
	if err := conn.conn.ReadJSON(&msg); err != nil {
		return nil, fmt.Errorf("read auth payload: %w", err)
	}
	switch msg.Type {
	case "guest":
		return nil, nil
	case "auth":
		claims, err := h.validator.ValidateToken(msg.Token, auth.TokenTypeAccess)
		if err != nil {
			return nil, fmt.Errorf("validate token: %w", err)
		}
		return claims.Identity(), nil
	default:
		return nil, fmt.Errorf("unexpected first message %q", msg.Type)
	}
}

func (h *WsHandler) readLoop(ctx context.Context, conn *wsConn, widths chan<- float64, errCh chan<- error) {
	defer close(widths)
	for {
		var msg wsInbound
		if err := conn.conn.ReadJSON(&msg); err != nil {
			errCh <- fmt.Errorf("read message: %w", err)
			return
		}
		if msg.Type != "resize" {
			continue
		}
		select {
		case widths <- msg.Width:
		case <-ctx.Done():
			return
		}
	}
}

func (h *WsHandler) subscribeLoop(ctx context.Context, conn *wsConn, key string, errCh chan<- error, log *slog.Logger) {
	var messages <-chan *redis.Message
	if h.redisClient != nil {
		channel := worker.NotifyChannel(key)
		pubsub := h.redisClient.Subscribe(ctx, channel)
		defer pubsub.Close()
		messages = pubsub.Channel()
		log.Info("subscribed to redis channel", slog.String("channel", channel))
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				errCh <- fmt.Errorf("pubsub channel closed")
				return
			}
			if err := conn.writeText(msg.Payload); err != nil {
				errCh <- fmt.Errorf("write message: %w", err)
				return
			}
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				return
			}
		}
	}
}
