package outbound

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taoyao-code/iohc-gateway/internal/metrics"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"go.uber.org/zap"
)

// Pacer 进程内传输：在独立 goroutine 中按每帧的延时/重复参数播放突发，
// 新突发到达时取消上一突发尚未发送的部分。
type Pacer struct {
	writer  FrameWriter
	logger  *zap.Logger
	metrics *metrics.AppMetrics

	mu      sync.Mutex
	pending chan Burst // 容量1，只保留最新的突发
	cancel  context.CancelFunc

	// 统计
	written  atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
	replaced atomic.Int64
	idle     atomic.Bool
}

// NewPacer 创建 Pacer，需调用 Run 启动播放循环
func NewPacer(w FrameWriter, logger *zap.Logger, m *metrics.AppMetrics) *Pacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pacer{
		writer:  w,
		logger:  logger,
		metrics: m,
		pending: make(chan Burst, 1),
	}
	p.idle.Store(true)
	return p
}

// Send 交接突发：取消正在播放的突发，替换尚未开始的突发，立即返回
func (p *Pacer) Send(_ context.Context, b Burst) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	select {
	case old := <-p.pending:
		p.replaced.Add(1)
		p.dropFrames(len(old.Frames))
		p.logger.Debug("pending burst replaced", zap.String("old", old.ID), zap.String("new", b.ID))
	default:
	}
	p.idle.Store(false)
	p.pending <- b
	return nil
}

// Run 播放循环（阻塞，直到 ctx 取消）
func (p *Pacer) Run(ctx context.Context) {
	p.logger.Info("radio pacer started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("radio pacer stopped")
			return
		case b := <-p.pending:
			p.mu.Lock()
			if len(p.pending) > 0 {
				// 取出后又有更新的突发到达
				p.mu.Unlock()
				p.replaced.Add(1)
				p.dropFrames(len(b.Frames))
				continue
			}
			bctx, cancel := context.WithCancel(ctx)
			p.cancel = cancel
			p.mu.Unlock()

			p.play(bctx, b)

			p.mu.Lock()
			cancel()
			p.cancel = nil
			if len(p.pending) == 0 {
				p.idle.Store(true)
			}
			p.mu.Unlock()
		}
	}
}

// Idle 没有正在播放或等待播放的突发
func (p *Pacer) Idle() bool { return p.idle.Load() }

func (p *Pacer) play(ctx context.Context, b Burst) {
	for i := range b.Frames {
		if err := playFrame(ctx, p.writer, &b.Frames[i], p.observe); err != nil {
			if ctx.Err() != nil {
				left := len(b.Frames) - i
				p.dropFrames(left)
				p.logger.Debug("burst cancelled",
					zap.String("burst_id", b.ID),
					zap.Int("unsent", left))
				return
			}
			p.logger.Warn("frame write failed",
				zap.String("burst_id", b.ID),
				zap.Int("seq", i),
				zap.Error(err))
		}
	}
	p.logger.Debug("burst played", zap.String("burst_id", b.ID), zap.Int("frames", len(b.Frames)))
}

func (p *Pacer) observe(err error) {
	if err != nil {
		p.failed.Add(1)
		p.count("error")
		return
	}
	p.written.Add(1)
	p.count("ok")
}

func (p *Pacer) dropFrames(n int) {
	if n <= 0 {
		return
	}
	p.dropped.Add(int64(n))
	if p.metrics != nil {
		p.metrics.TransportFramesTotal.WithLabelValues("dropped").Add(float64(n))
	}
}

func (p *Pacer) count(result string) {
	if p.metrics != nil {
		p.metrics.TransportFramesTotal.WithLabelValues(result).Inc()
	}
}

// Stats 获取统计信息
func (p *Pacer) Stats() map[string]interface{} {
	return map[string]interface{}{
		"written":  p.written.Load(),
		"failed":   p.failed.Load(),
		"dropped":  p.dropped.Load(),
		"replaced": p.replaced.Load(),
		"idle":     p.idle.Load(),
	}
}

// playFrame 等待帧的发送前延时，然后写 1+Repeat 次，每次间隔 RepeatInterval。
// 写入期间置位 Lock。ctx 取消时返回 ctx.Err()，单次写失败不中断重复。
func playFrame(ctx context.Context, w FrameWriter, f *iohc.Frame, observe func(error)) error {
	if err := sleep(ctx, f.Delay); err != nil {
		return err
	}
	var last error
	for r := 0; r <= f.Repeat; r++ {
		if r > 0 {
			if err := sleep(ctx, f.RepeatInterval); err != nil {
				return err
			}
		}
		f.Lock = true
		err := w.WriteFrame(ctx, f)
		f.Lock = false
		if observe != nil {
			observe(err)
		}
		if err != nil {
			last = err
		}
	}
	return last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
