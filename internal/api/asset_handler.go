package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"

	"resumify/internal/api/middleware"
	"resumify/internal/auth"
	"resumify/internal/storage"
)

const maxAvatarBytes = 5 << 20

// avatarTypes 按嗅探出的类型给出扩展名。
var avatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

var avatarExtensions = []string{"png", "jpg", "jpeg", "webp"}

// ErrInfected 表示上传内容未通过病毒扫描。
var ErrInfected = errors.New("malicious file detected")

// Scanner 在上传前扫描文件内容。
type Scanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 扫描。
type ClamdScanner struct {
	client *clamd.Clamd
}

func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

func (s *ClamdScanner) Scan(r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	for result := range results {
		switch result.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			return fmt.Errorf("%w: %s", ErrInfected, result.Description)
		default:
			return fmt.Errorf("clamd scan: %s %s", result.Status, result.Description)
		}
	}
	return nil
}

// AssetHandler 负责头像上传与访问。
type AssetHandler struct {
	store      storage.ObjectStore
	scanner    Scanner
	presignTTL time.Duration
}

// NewAssetHandler 返回 AssetHandler；scanner 为 nil 时跳过病毒扫描。
func NewAssetHandler(store storage.ObjectStore, scanner Scanner, presignTTL time.Duration) *AssetHandler {
	return &AssetHandler{store: store, scanner: scanner, presignTTL: presignTTL}
}

// POST /v1/assets/avatar
// 只接受 PNG、JPEG 与 WebP，类型按内容嗅探而不是按请求头。
func (h *AssetHandler) UploadAvatar(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	if id == nil {
		AbortUnauthorized(c)
		return
	}
	logger := middleware.LoggerFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > maxAvatarBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	f, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxAvatarBytes+1))
	if err != nil {
		Internal(c, "failed to read file")
		return
	}
	if len(content) > maxAvatarBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	contentType := http.DetectContentType(content)
	ext, ok := avatarTypes[contentType]
	if !ok {
		Error(c, http.StatusUnsupportedMediaType, "unsupported image type")
		return
	}

	if h.scanner != nil {
		if err := h.scanner.Scan(bytes.NewReader(content)); err != nil {
			if errors.Is(err, ErrInfected) {
				logger.Warn("avatar rejected by scanner", slog.Any("error", err))
				BadRequest(c, "malicious file detected")
				return
			}
			logger.Error("scan avatar failed", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	ctx := c.Request.Context()
	objectKey := storage.AvatarKey(auth.Key(id, c.ClientIP()), ext)
	if err := h.store.Put(ctx, objectKey, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		logger.Error("upload avatar failed", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	url, err := h.store.DownloadURL(ctx, objectKey, "", h.presignTTL)
	if err != nil {
		logger.Warn("presign avatar failed", slog.Any("error", err))
	}
	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey, "url": url})
}

// GET /v1/assets/avatar?key=
func (h *AssetHandler) GetAvatarURL(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	if id == nil {
		AbortUnauthorized(c)
		return
	}
	key := c.Query("key")
	if key == "" {
		BadRequest(c, "missing key")
		return
	}
	if !ownsAvatarKey(id, key) {
		Forbidden(c, "access denied")
		return
	}

	url, err := h.store.DownloadURL(c.Request.Context(), key, "", h.presignTTL)
	if err != nil {
		middleware.LoggerFromContext(c).Error("presign avatar failed", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
