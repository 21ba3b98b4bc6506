package main

import (
	"github.com/taoyao-code/iohc-gateway/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"github.com/taoyao-code/iohc-gateway/internal/logging"

	"go.uber.org/zap"
)

func main() {
	// 1) 加载配置（IOHC_CONFIG 指定路径，缺省 configs/gateway.yaml）
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动网关
	if err := bootstrap.Run(cfg, zap.L()); err != nil {
		zap.L().Fatal("gateway exited", zap.Error(err))
	}
}
