package iohc

import (
	"encoding/hex"
	"fmt"
	"time"
)

// 帧缓冲容量：长度字段5位，整帧最多32字节
const (
	MaxFrameSize   = 32
	MaxPayloadSize = MaxFrameSize - HeaderSize
)

// Channel 射频信道频率（Hz）
type Channel uint32

// 三个固定信道，2W 设备默认使用中间的 868.95MHz
const (
	Channel1 Channel = 868250000
	Channel2 Channel = 868950000
	Channel3 Channel = 869850000
)

// Channels 按频率升序
var Channels = [3]Channel{Channel1, Channel2, Channel3}

// 默认调度参数
const (
	DefaultRepeatInterval = 25 * time.Millisecond
	DefaultChannel        = Channel2
)

// String 以 MHz 显示
func (c Channel) String() string {
	return fmt.Sprintf("%d.%03d", c/1000000, (c/1000)%1000)
}

// Frame 一个可寻址的无线帧：9字节帧头 + 载荷，外加发送调度元数据。
// Frame 是值类型，缓冲区为定长数组，复制即深拷贝。
type Frame struct {
	buf    [MaxFrameSize]byte
	length int

	Channel        Channel
	RepeatInterval time.Duration
	Repeat         int
	Delay          time.Duration
	// Lock 由传输层持有：发送尝试进行中时该帧不可修改或重投
	Lock bool
}

// Forge 构造帧：ctrl1 写入 长度=帧头-1、协议=0、起始=1、结束=0，ctrl2 清零，
// 然后将载荷长度整字节累加到 ctrl1（不单独隔离长度位，保持与实测流量一致）。
// 载荷从偏移9开始。超出容量时返回 ErrSize，不产生任何部分结果。
func Forge(payload []byte) (Frame, error) {
	var f Frame
	if len(payload) > MaxPayloadSize {
		return f, fmt.Errorf("%w: %d bytes, max %d", ErrSize, len(payload), MaxPayloadSize)
	}

	f.buf[offsetCtrl1] = EncodeCtrl1(Ctrl1{Length: HeaderSize - 1, StartFrame: true})
	f.buf[offsetCtrl2] = 0
	f.buf[offsetCtrl1] += byte(len(payload))

	copy(f.buf[HeaderSize:], payload)
	f.length = HeaderSize + len(payload)

	f.Channel = DefaultChannel
	f.Repeat = 0
	f.RepeatInterval = DefaultRepeatInterval
	f.Lock = false
	return f, nil
}

// Decode 从线上字节恢复帧，校验长度字段；调度元数据取默认值
func Decode(b []byte) (Frame, error) {
	var f Frame
	if len(b) < HeaderSize || len(b) > MaxFrameSize {
		return f, fmt.Errorf("%w: frame of %d bytes", ErrSize, len(b))
	}
	if l := int(DecodeCtrl1(b[offsetCtrl1]).Length); l != len(b)-1 {
		return f, fmt.Errorf("%w: length field %d for %d bytes", ErrParse, l, len(b))
	}
	copy(f.buf[:], b)
	f.length = len(b)
	f.Channel = DefaultChannel
	f.RepeatInterval = DefaultRepeatInterval
	return f, nil
}

// Bytes 返回帧的线上字节副本
func (f *Frame) Bytes() []byte {
	out := make([]byte, f.length)
	copy(out, f.buf[:f.length])
	return out
}

// Hex 返回线上字节的十六进制
func (f *Frame) Hex() string {
	return hex.EncodeToString(f.buf[:f.length])
}

// Len 整帧长度
func (f *Frame) Len() int { return f.length }

// Payload 返回载荷副本
func (f *Frame) Payload() []byte {
	out := make([]byte, f.length-HeaderSize)
	copy(out, f.buf[HeaderSize:f.length])
	return out
}

// Ctrl1 解码后的控制字节1
func (f *Frame) Ctrl1() Ctrl1 { return DecodeCtrl1(f.buf[offsetCtrl1]) }

// Ctrl2 解码后的控制字节2
func (f *Frame) Ctrl2() Ctrl2 { return DecodeCtrl2(f.buf[offsetCtrl2]) }

// Command 命令码
func (f *Frame) Command() byte { return f.buf[offsetCmd] }

// SetCommand 设置命令码
func (f *Frame) SetCommand(cmd byte) { f.buf[offsetCmd] = cmd }

// Source 源地址
func (f *Frame) Source() Address {
	var a Address
	copy(a[:], f.buf[offsetSource:offsetSource+AddressSize])
	return a
}

// SetSource 设置源地址
func (f *Frame) SetSource(a Address) { copy(f.buf[offsetSource:], a[:]) }

// Target 目标地址
func (f *Frame) Target() Address {
	var a Address
	copy(a[:], f.buf[offsetTarget:offsetTarget+AddressSize])
	return a
}

// SetTarget 设置目标地址
func (f *Frame) SetTarget(a Address) { copy(f.buf[offsetTarget:], a[:]) }

// ApplyFlags 覆盖起始/结束帧与低功耗/优先级位，只改对应位，长度位保持不变
func (f *Frame) ApplyFlags(fl Flags) {
	c1 := f.buf[offsetCtrl1]
	c1 = setBit(c1, ctrl1StartBit, fl.StartFrame)
	c1 = setBit(c1, ctrl1EndBit, fl.EndFrame)
	f.buf[offsetCtrl1] = c1

	c2 := f.buf[offsetCtrl2]
	c2 = setBit(c2, ctrl2LPMBit, fl.LowPowerMode)
	c2 = setBit(c2, ctrl2PriorityBit, fl.Priority)
	f.buf[offsetCtrl2] = c2
}

// String 日志友好的帧摘要
func (f *Frame) String() string {
	c1 := f.Ctrl1()
	c2 := f.Ctrl2()
	return fmt.Sprintf("(%02d) S %d E %d LPM %d PRIO %d FROM %s TO %s CMD %02x F%s DATA %x",
		c1.Length, b2i(c1.StartFrame), b2i(c1.EndFrame), b2i(c2.LowPowerMode), b2i(c2.Priority),
		f.Source(), f.Target(), f.Command(), f.Channel, f.buf[HeaderSize:f.length])
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
