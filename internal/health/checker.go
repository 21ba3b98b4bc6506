// Package health 网关健康检查：射频传输、Redis 帧队列与设备表数据库各一个检查器，
// 由 Aggregator 汇总后通过 /health 暴露；/ready 只看 Readiness。
package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"  // 仍可下发命令，但帧写入或队列异常
	StatusUnhealthy Status = "unhealthy" // 无法下发命令
)

// CheckResult 单个检查器的结果
type CheckResult struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency"`
}

// Checker 检查器。Name 作为报告中的键（transport、redis、database）
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// since 填充耗时
func since(start time.Time, r CheckResult) CheckResult {
	r.Latency = time.Since(start)
	return r
}
