package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartProbeLoop 周期性执行有效性探测，interval<=0 时不启动
func StartProbeLoop(ctx context.Context, gw *Gateway, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("periodic validity probe disabled")
		return
	}
	logger.Info("periodic validity probe started", zap.Duration("interval", interval))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := gw.ProbeAll(ctx)
				if err != nil {
					logger.Warn("periodic probe failed", zap.Error(err))
					continue
				}
				logger.Debug("periodic probe submitted", zap.Int("entries", n))
			}
		}
	}()
}
