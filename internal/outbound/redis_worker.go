package outbound

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/taoyao-code/iohc-gateway/internal/metrics"
	redisstorage "github.com/taoyao-code/iohc-gateway/internal/storage/redis"
	"go.uber.org/zap"
)

// RedisWorker 消费 Redis 下行帧列表，按每帧延时/重复参数写到射频硬件
type RedisWorker struct {
	queue   *redisstorage.BurstQueue
	writer  FrameWriter
	logger  *zap.Logger
	metrics *metrics.AppMetrics
	poll    time.Duration
	stopC   chan struct{}

	// 统计
	written atomic.Int64
	failed  atomic.Int64
	invalid atomic.Int64
}

// NewRedisWorker 创建 Redis Worker，poll 为队列为空时的轮询间隔
func NewRedisWorker(queue *redisstorage.BurstQueue, w FrameWriter, poll time.Duration, logger *zap.Logger, m *metrics.AppMetrics) *RedisWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poll <= 0 {
		poll = 20 * time.Millisecond
	}
	return &RedisWorker{
		queue:   queue,
		writer:  w,
		logger:  logger,
		metrics: m,
		poll:    poll,
		stopC:   make(chan struct{}),
	}
}

// Start 启动Worker（阻塞）
func (w *RedisWorker) Start(ctx context.Context) {
	w.logger.Info("redis radio worker started", zap.String("key", w.queue.Key()))

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("redis radio worker stopping")
			return
		case <-w.stopC:
			w.logger.Info("redis radio worker stopped")
			return
		case <-ticker.C:
			// 连续处理直到队列为空
			for w.processOne(ctx) {
			}
		}
	}
}

// Stop 停止Worker
func (w *RedisWorker) Stop() {
	close(w.stopC)
}

// processOne 处理一帧，返回是否取到了帧
func (w *RedisWorker) processOne(ctx context.Context) bool {
	raw, err := w.queue.Pop(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("pop frame failed", zap.Error(err))
		}
		return false
	}
	if raw == nil {
		return false
	}

	var msg FrameMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		w.invalid.Add(1)
		w.logger.Warn("invalid frame message", zap.Error(err), zap.ByteString("raw", raw))
		return true
	}
	f, err := msg.Frame()
	if err != nil {
		w.invalid.Add(1)
		w.logger.Warn("invalid frame data",
			zap.String("burst_id", msg.BurstID),
			zap.Int("seq", msg.Seq),
			zap.Error(err))
		return true
	}

	err = playFrame(ctx, w.writer, &f, w.observe)
	if err != nil && ctx.Err() == nil {
		w.logger.Warn("frame write failed",
			zap.String("burst_id", msg.BurstID),
			zap.Int("seq", msg.Seq),
			zap.Error(err))
	}
	return ctx.Err() == nil
}

func (w *RedisWorker) observe(err error) {
	result := "ok"
	if err != nil {
		w.failed.Add(1)
		result = "error"
	} else {
		w.written.Add(1)
	}
	if w.metrics != nil {
		w.metrics.TransportFramesTotal.WithLabelValues(result).Inc()
	}
}

// Stats 获取统计信息
func (w *RedisWorker) Stats(ctx context.Context) map[string]interface{} {
	queueStats, _ := w.queue.Stats(ctx)

	return map[string]interface{}{
		"written": w.written.Load(),
		"failed":  w.failed.Load(),
		"invalid": w.invalid.Load(),
		"queue":   queueStats,
	}
}
