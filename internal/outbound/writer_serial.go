package outbound

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/tarm/serial"
	"go.uber.org/zap"
)

// SerialWriter 通过串口把帧交给射频模块。
// 每帧一行："<信道Hz> <十六进制帧>\n"。
type SerialWriter struct {
	mu     sync.Mutex
	port   io.Writer
	closer io.Closer
	logger *zap.Logger
}

// OpenSerial 打开串口射频模块
func OpenSerial(device string, baud int, readTimeout time.Duration, logger *zap.Logger) (*SerialWriter, error) {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: readTimeout})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	if err := port.Flush(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("flush serial %s: %w", device, err)
	}
	w := NewSerialWriter(port, logger)
	w.closer = port
	return w, nil
}

// NewSerialWriter 包装任意 io.Writer（测试中使用内存缓冲）
func NewSerialWriter(port io.Writer, logger *zap.Logger) *SerialWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialWriter{port: port, logger: logger}
}

// WriteFrame 写一帧
func (w *SerialWriter) WriteFrame(_ context.Context, f *iohc.Frame) error {
	line := []byte(fmt.Sprintf("%d %s\n", uint32(f.Channel), f.Hex()))

	w.mu.Lock()
	defer w.mu.Unlock()
	return writeFully(w.port, line)
}

// Close 关闭串口
func (w *SerialWriter) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

func writeFully(dst io.Writer, b []byte) error {
	written := 0
	for written < len(b) {
		n, err := dst.Write(b[written:])
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		written += n
	}
	return nil
}
