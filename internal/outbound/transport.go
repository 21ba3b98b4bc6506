package outbound

import (
	"context"
	"errors"

	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
)

// ErrNoTransport 射频传输无法建立
var ErrNoTransport = errors.New("outbound: radio transport unavailable")

// Transport 射频传输契约：异步接收突发，负责延时/重复/锁定语义。
// Send 只做交接，不等待发送完成。
type Transport interface {
	Send(ctx context.Context, b Burst) error
}

// Dialer 首次使用时建立传输
type Dialer func(ctx context.Context) (Transport, error)

// FrameWriter 把单帧写到射频硬件（或其代理）
type FrameWriter interface {
	WriteFrame(ctx context.Context, f *iohc.Frame) error
}

// Static 返回固定传输的 Dialer
func Static(t Transport) Dialer {
	return func(context.Context) (Transport, error) { return t, nil }
}
