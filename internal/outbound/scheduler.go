package outbound

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"go.uber.org/zap"
)

// Scheduler 组装突发并交给传输层。
// 队列在每次命令构建开始时截断清空，未发送的上一突发直接丢弃（覆盖，不合并）。
// 不加锁，调用方需在外部串行化。
type Scheduler struct {
	dial      Dialer
	transport Transport
	queue     []iohc.Frame
	logger    *zap.Logger
	onReady   func()
}

// NewScheduler 创建调度器，传输在首次 Submit 时建立
func NewScheduler(dial Dialer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{dial: dial, logger: logger}
}

// OnReady 设置传输建立成功后的回调（启动时或首次命令惰性建立时各调用一次）
func (s *Scheduler) OnReady(fn func()) { s.onReady = fn }

// Reset 截断队列
func (s *Scheduler) Reset() { s.queue = s.queue[:0] }

// Add 追加帧（值拷贝）
func (s *Scheduler) Add(frames ...iohc.Frame) { s.queue = append(s.queue, frames...) }

// Len 当前队列帧数
func (s *Scheduler) Len() int { return len(s.queue) }

// Queued 队列副本
func (s *Scheduler) Queued() []iohc.Frame {
	out := make([]iohc.Frame, len(s.queue))
	copy(out, s.queue)
	return out
}

// Transport 返回传输句柄，未建立时惰性建立
func (s *Scheduler) Transport(ctx context.Context) (Transport, error) {
	if s.transport != nil {
		return s.transport, nil
	}
	if s.dial == nil {
		return nil, ErrNoTransport
	}
	t, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTransport, err)
	}
	if t == nil {
		return nil, ErrNoTransport
	}
	s.transport = t
	s.logger.Info("radio transport ready", zap.String("transport", fmt.Sprintf("%T", t)))
	if s.onReady != nil {
		s.onReady()
	}
	return t, nil
}

// Submit 将当前队列作为一个突发交给传输层。传输层拿到的是副本，
// 之后的 Reset 不会影响已交出的突发。空队列不发送。
func (s *Scheduler) Submit(ctx context.Context, button string) (Burst, error) {
	b := Burst{
		ID:        uuid.NewString(),
		Button:    button,
		CreatedAt: time.Now(),
		Frames:    s.Queued(),
	}
	if len(b.Frames) == 0 {
		return b, nil
	}

	t, err := s.Transport(ctx)
	if err != nil {
		return Burst{}, err
	}
	if err := t.Send(ctx, b); err != nil {
		return Burst{}, fmt.Errorf("send burst %s: %w", b.ID, err)
	}

	s.logger.Debug("burst handed to transport",
		zap.String("burst_id", b.ID),
		zap.String("button", button),
		zap.Int("frames", len(b.Frames)))
	return b, nil
}
