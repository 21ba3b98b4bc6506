package health

import (
	"context"
	"fmt"
	"time"
)

// TransportStats 射频传输统计来源（Pacer、RedisWorker 等）
type TransportStats func(ctx context.Context) map[string]interface{}

// TransportChecker 射频传输健康检查器
type TransportChecker struct {
	kind      string
	stats     TransportStats
	connected func() bool
}

// NewTransportChecker 创建传输检查器。connected 为 nil 表示传输无连接状态（串口/日志）
func NewTransportChecker(kind string, stats TransportStats, connected func() bool) *TransportChecker {
	return &TransportChecker{kind: kind, stats: stats, connected: connected}
}

// Name 返回检查器名称
func (c *TransportChecker) Name() string {
	return "transport"
}

// Check 执行健康检查
func (c *TransportChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	details := map[string]interface{}{"kind": c.kind}
	if c.stats != nil {
		for k, v := range c.stats(ctx) {
			details[k] = v
		}
	}

	if c.connected != nil && !c.connected() {
		return since(start, CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("%s transport disconnected", c.kind),
			Details: details,
		})
	}

	status := StatusHealthy
	message := "ok"

	// 失败写入多于成功写入，射频模块可能异常
	written, _ := details["written"].(int64)
	failed, _ := details["failed"].(int64)
	if failed > 0 && failed > written {
		status = StatusDegraded
		message = "frame writes failing"
	}

	return since(start, CheckResult{Status: status, Message: message, Details: details})
}
