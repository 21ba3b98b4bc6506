package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseChecker 设备注册表数据库（postgres 后端）健康检查器
type DatabaseChecker struct {
	pool *pgxpool.Pool
	set  string
}

// NewDatabaseChecker 创建数据库健康检查器，set 为设备集合名
func NewDatabaseChecker(pool *pgxpool.Pool, set string) *DatabaseChecker {
	return &DatabaseChecker{pool: pool, set: set}
}

// Name 返回检查器名称
func (c *DatabaseChecker) Name() string {
	return "database"
}

// Check 执行健康检查
func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	// 1. Ping测试
	if err := c.pool.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	// 2. 获取连接池统计
	stats := c.pool.Stat()

	// 3. 计算连接池利用率
	utilization := 0.0
	if stats.MaxConns() > 0 {
		utilization = float64(stats.AcquiredConns()) / float64(stats.MaxConns())
	}

	// 4. 判断健康状态
	status := StatusHealthy
	message := "ok"

	if utilization > 0.9 {
		status = StatusDegraded
		message = "connection pool near limit"
	}

	if utilization >= 1.0 {
		status = StatusUnhealthy
		message = "connection pool exhausted"
	}

	details := map[string]interface{}{
		"total_conns":    stats.TotalConns(),
		"idle_conns":     stats.IdleConns(),
		"acquired_conns": stats.AcquiredConns(),
		"max_conns":      stats.MaxConns(),
		"utilization":    fmt.Sprintf("%.1f%%", utilization*100),
	}

	// 5. 已持久化的设备数（表不存在时忽略）
	var devices int64
	err := c.pool.QueryRow(ctx, `SELECT count(*) FROM iohc_devices WHERE set_name=$1`, c.set).Scan(&devices)
	if err == nil {
		details["set"] = c.set
		details["devices"] = devices
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
