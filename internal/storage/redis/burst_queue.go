package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	burstMetaSuffix = ":burst" // 当前突发ID（String）
)

// BurstQueue 射频下行帧列表（List）。
// 新突发整体替换旧列表：DEL + RPUSH 在同一事务内执行，消费者看不到新旧混合的队列。
type BurstQueue struct {
	client *Client
	key    string
}

// NewBurstQueue 创建下行帧队列
func NewBurstQueue(client *Client, key string) *BurstQueue {
	if key == "" {
		key = "iohc:tx"
	}
	return &BurstQueue{client: client, key: key}
}

// Key 列表键
func (q *BurstQueue) Key() string { return q.key }

// Replace 用新突发的帧替换队列中所有未消费的帧
func (q *BurstQueue) Replace(ctx context.Context, burstID string, frames [][]byte) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, q.key)
		if len(frames) > 0 {
			vals := make([]interface{}, len(frames))
			for i, f := range frames {
				vals[i] = f
			}
			pipe.RPush(ctx, q.key, vals...)
		}
		pipe.Set(ctx, q.key+burstMetaSuffix, burstID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace burst %s: %w", burstID, err)
	}
	return nil
}

// Pop 取出队首帧；队列为空返回 nil, nil
func (q *BurstQueue) Pop(ctx context.Context) ([]byte, error) {
	b, err := q.client.LPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Pending 未消费帧数
func (q *BurstQueue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// CurrentBurst 最近一次写入的突发ID
func (q *BurstQueue) CurrentBurst(ctx context.Context) (string, error) {
	id, err := q.client.Get(ctx, q.key+burstMetaSuffix).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return strings.TrimSpace(id), err
}

// Stats 获取队列统计信息
func (q *BurstQueue) Stats(ctx context.Context) (map[string]interface{}, error) {
	pending, err := q.Pending(ctx)
	if err != nil {
		return nil, err
	}
	burst, err := q.CurrentBurst(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"pending": pending,
		"burst":   burst,
	}, nil
}
