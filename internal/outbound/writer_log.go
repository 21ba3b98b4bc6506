package outbound

import (
	"context"

	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"go.uber.org/zap"
)

// LogWriter 只记录日志的帧写入器（无射频硬件时使用）
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter 创建日志写入器
func NewLogWriter(logger *zap.Logger) *LogWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogWriter{logger: logger}
}

// WriteFrame 记录帧内容
func (w *LogWriter) WriteFrame(_ context.Context, f *iohc.Frame) error {
	w.logger.Info("📤 tx",
		zap.String("channel", f.Channel.String()),
		zap.String("frame_hex", f.Hex()),
		zap.String("frame", f.String()))
	return nil
}
