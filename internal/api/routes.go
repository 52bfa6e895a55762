package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumify/internal/api/middleware"
	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/drafts"
	"resumify/internal/ratelimit"
	"resumify/internal/storage"
)

// Enqueuer 是 *asynq.Client 的入队部分。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Locker 是导出互斥锁，*ratelimit.KeyLock 实现它。
type Locker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Deps 汇总路由需要的依赖。
type Deps struct {
	DB            *gorm.DB
	Catalog       *catalog.Catalog
	Drafts        *drafts.Store
	Store         storage.ObjectStore
	Queue         Enqueuer
	Auth          *auth.AuthService
	Redis         *redis.Client
	Revoker       Revoker
	LoginLimiter  ratelimit.Limiter
	ExportLimiter ratelimit.Limiter
	ExportLock    Locker
	Scanner       Scanner
	Logger        *slog.Logger

	Origins        []string
	InternalSecret string
	PresignTTL     time.Duration
}

// RegisterRoutes 注册 /v1 下的业务路由。
func RegisterRoutes(router *gin.Engine, d Deps) {
	templateHandler := NewTemplateHandler(d.DB, d.Catalog, d.Store, d.Queue, d.PresignTTL)
	previewHandler := NewPreviewHandler(d.Catalog, d.Drafts)
	draftHandler := NewDraftHandler(d.Catalog, d.Drafts)
	exportHandler := NewExportHandler(d.DB, d.Catalog, d.Drafts, d.Store, d.Queue, d.ExportLimiter, d.ExportLock, d.PresignTTL)
	assetHandler := NewAssetHandler(d.Store, d.Scanner, d.PresignTTL)
	authHandler := NewAuthHandler(d.DB, d.Auth, d.Revoker, d.LoginLimiter, d.Logger)
	wsHandler := NewWsHandler(d.Redis, d.Auth, d.Logger, d.Origins)

	requireAuth := middleware.AuthMiddleware(d.Auth)
	optionalAuth := middleware.OptionalAuth(d.Auth)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.Me)
		}

		templates := v1.Group("/templates")
		{
			templates.GET("", templateHandler.ListTemplates)
			templates.GET("/:id", templateHandler.GetTemplate)
			templates.GET("/:id/thumbnail", templateHandler.GetThumbnail)
			templates.GET("/:id/frame", templateHandler.GetFrame)
		}

		v1.POST("/preview", optionalAuth, previewHandler.Preview)

		draftGroup := v1.Group("/drafts")
		draftGroup.Use(requireAuth)
		{
			draftGroup.GET("", draftHandler.GetDraft)
			draftGroup.PUT("", draftHandler.SaveDraft)
			draftGroup.PUT("/template", draftHandler.SelectTemplate)
			draftGroup.PUT("/personal", draftHandler.SetPersonal)
			draftGroup.POST("/:section", draftHandler.AddEntry)
			draftGroup.PUT("/:section/:entryId", draftHandler.UpdateEntry)
			draftGroup.DELETE("/:section/:entryId", draftHandler.RemoveEntry)
		}

		exportGroup := v1.Group("/exports")
		exportGroup.Use(optionalAuth)
		{
			exportGroup.POST("", exportHandler.CreateExport)
			exportGroup.GET("/:id", exportHandler.GetExport)
			exportGroup.GET("/:id/download-link", exportHandler.GetDownloadLink)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(requireAuth)
		{
			assetGroup.POST("/avatar", assetHandler.UploadAvatar)
			assetGroup.GET("/avatar", assetHandler.GetAvatarURL)
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalSecretMiddleware(d.InternalSecret))
		{
			internal.POST("/thumbnails", templateHandler.EnqueueThumbnails)
		}
	}
}
