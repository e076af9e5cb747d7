package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/druckerbude-source/sticker-customizer/config"
	"github.com/druckerbude-source/sticker-customizer/handler"
	"github.com/druckerbude-source/sticker-customizer/middleware"
	"github.com/druckerbude-source/sticker-customizer/service"
	"github.com/druckerbude-source/sticker-customizer/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	cfg := config.New()

	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting sticker-customizer server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	if err := os.MkdirAll(cfg.Upload.UploadDir, 0755); err != nil {
		utils.Logger.Fatal("failed to create upload directory", zap.Error(err))
	}

	catalog, err := service.LoadCatalog(cfg.Catalog)
	if err != nil {
		utils.Logger.Fatal("invalid size catalog", zap.Error(err))
	}

	redisService := service.NewRedisService(&cfg.Redis)
	ctx := context.Background()
	if err := redisService.Ping(ctx); err != nil {
		utils.Logger.Warn("redis connection failed, remote cache disabled", zap.Error(err))
	} else {
		utils.Logger.Info("redis connected successfully")
	}
	defer redisService.Close()

	engine := service.NewEngine(cfg.Engine)

	stickerHandler := handler.NewStickerHandler(cfg, redisService, engine, catalog)

	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	r.Static("/static", "./static")
	r.StaticFile("/", "./static/index.html")

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"version": Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"build_id":   BuildID,
			"git_commit": GitCommit,
			"git_branch": GitBranch,
		})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/upload", stickerHandler.Upload)
		api.GET("/sizes", stickerHandler.Sizes)
		api.GET("/sticker/:md5", stickerHandler.GetSticker)
		api.GET("/sticker/:md5/preview", stickerHandler.Preview)
		api.GET("/sticker/:md5/cutline", stickerHandler.Cutline)
		api.POST("/sticker/:md5/export", stickerHandler.Export)
	}

	utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(cfg.Server.Port); err != nil {
		utils.Logger.Fatal("failed to start server", zap.Error(err))
	}
}
