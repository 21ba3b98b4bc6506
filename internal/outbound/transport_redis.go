package outbound

import (
	"context"
	"encoding/json"
	"fmt"

	redisstorage "github.com/taoyao-code/iohc-gateway/internal/storage/redis"
	"go.uber.org/zap"
)

// RedisTransport 把突发写入 Redis 列表，由射频进程（或本进程的 RedisWorker）消费。
// 每次写入整体替换列表，未消费的旧帧被丢弃。
type RedisTransport struct {
	queue  *redisstorage.BurstQueue
	logger *zap.Logger
}

// NewRedisTransport 创建 Redis 传输
func NewRedisTransport(queue *redisstorage.BurstQueue, logger *zap.Logger) *RedisTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTransport{queue: queue, logger: logger}
}

// Send 实现 Transport
func (t *RedisTransport) Send(ctx context.Context, b Burst) error {
	items := make([][]byte, len(b.Frames))
	for i := range b.Frames {
		data, err := json.Marshal(NewFrameMessage(b.ID, i, &b.Frames[i]))
		if err != nil {
			return fmt.Errorf("marshal frame: %w", err)
		}
		items[i] = data
	}
	if err := t.queue.Replace(ctx, b.ID, items); err != nil {
		return err
	}
	t.logger.Debug("burst queued in redis",
		zap.String("burst_id", b.ID),
		zap.String("key", t.queue.Key()),
		zap.Int("frames", len(items)))
	return nil
}
