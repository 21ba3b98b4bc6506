package middleware

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
}

// RateLimiter 基于Token Bucket的命令限流器，全局共享一个桶（射频只有一个）
type RateLimiter struct {
	limiter       *rate.Limiter
	allowedCount  atomic.Int64
	rejectedCount atomic.Int64
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst),
	}
}

// Allow 检查是否允许请求（非阻塞）
func (l *RateLimiter) Allow() bool {
	if l.limiter.Allow() {
		l.allowedCount.Add(1)
		return true
	}
	l.rejectedCount.Add(1)
	return false
}

// Stats 累计允许/拒绝次数
func (l *RateLimiter) Stats() (allowed, rejected int64) {
	return l.allowedCount.Load(), l.rejectedCount.Load()
}

// RateLimit 限流中间件，超限返回 429
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	l := NewRateLimiter(cfg)
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "命令发送过于频繁，请稍后重试",
			})
			return
		}
		c.Next()
	}
}
