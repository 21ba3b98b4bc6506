package api

import (
	"github.com/gin-gonic/gin"
	"github.com/taoyao-code/iohc-gateway/internal/api/middleware"
	"go.uber.org/zap"
)

// RegisterRoutes 注册命令与设备管理路由
func RegisterRoutes(
	r *gin.Engine,
	gw Gateway,
	authCfg middleware.AuthConfig,
	rlCfg middleware.RateLimitConfig,
	logger *zap.Logger,
) {
	if r == nil || gw == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewHandler(gw, logger)

	// API路由组(需要认证)
	api := r.Group("/api")
	api.Use(middleware.CORS())
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	// 会发射频的接口共享一个限流桶
	limited := api.Group("")
	limited.Use(middleware.RateLimit(rlCfg))
	limited.POST("/cmd", handler.Cmd)
	limited.POST("/probe", handler.Probe)

	// 诊断
	api.GET("/scan", handler.Scan)
	api.GET("/memo", handler.Memo)

	// 设备注册表
	api.GET("/devices", handler.ListDevices)
	api.POST("/devices", handler.AddDevice)
	api.POST("/devices/save", handler.SaveDevices)

	// 接收路径回写
	api.PUT("/validity/:code", handler.RecordValidity)
	api.POST("/rx", handler.Received)

	logger.Info("api routes registered",
		zap.Int("endpoints", 9),
		zap.Bool("rate_limit", rlCfg.Enabled))
}
