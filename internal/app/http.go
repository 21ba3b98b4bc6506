package app

import (
	"net/http"

	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"github.com/taoyao-code/iohc-gateway/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器，指标关闭时不挂载指标路由
func NewHTTPServer(cfg cfgpkg.HTTPConfig, mc cfgpkg.MetricsConfig, metricsHandler http.Handler, readyFn func() bool) *httpserver.Server {
	if !mc.Enable {
		metricsHandler = nil
	}
	return httpserver.New(cfg, mc.Path, metricsHandler, readyFn)
}
