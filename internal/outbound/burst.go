package outbound

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
)

// Burst 一次命令调用产生的有序帧组。交给传输层后归传输层所有。
type Burst struct {
	ID        string
	Button    string
	CreatedAt time.Time
	Frames    []iohc.Frame
}

// FrameMessage 帧在 Redis/MQTT 上的 JSON 表示
type FrameMessage struct {
	BurstID          string `json:"burst_id"`
	Seq              int    `json:"seq"`
	Data             string `json:"data"`    // 线上字节（十六进制）
	Channel          uint32 `json:"channel"` // Hz
	Repeat           int    `json:"repeat"`
	RepeatIntervalMs int64  `json:"repeat_interval_ms"`
	DelayMs          int64  `json:"delay_ms"`
	Lock             bool   `json:"lock"`
}

// BurstMessage 整个突发的 JSON 表示
type BurstMessage struct {
	ID        string         `json:"id"`
	Button    string         `json:"button"`
	CreatedAt time.Time      `json:"created_at"`
	Frames    []FrameMessage `json:"frames"`
}

// NewFrameMessage 编码单帧
func NewFrameMessage(burstID string, seq int, f *iohc.Frame) FrameMessage {
	return FrameMessage{
		BurstID:          burstID,
		Seq:              seq,
		Data:             f.Hex(),
		Channel:          uint32(f.Channel),
		Repeat:           f.Repeat,
		RepeatIntervalMs: f.RepeatInterval.Milliseconds(),
		DelayMs:          f.Delay.Milliseconds(),
		Lock:             f.Lock,
	}
}

// Frame 解码为帧，恢复调度元数据
func (m FrameMessage) Frame() (iohc.Frame, error) {
	raw, err := hex.DecodeString(m.Data)
	if err != nil {
		return iohc.Frame{}, fmt.Errorf("%w: frame data: %v", iohc.ErrParse, err)
	}
	f, err := iohc.Decode(raw)
	if err != nil {
		return iohc.Frame{}, err
	}
	f.Channel = iohc.Channel(m.Channel)
	f.Repeat = m.Repeat
	f.RepeatInterval = time.Duration(m.RepeatIntervalMs) * time.Millisecond
	f.Delay = time.Duration(m.DelayMs) * time.Millisecond
	f.Lock = m.Lock
	return f, nil
}

// NewBurstMessage 编码整个突发
func NewBurstMessage(b Burst) BurstMessage {
	msg := BurstMessage{
		ID:        b.ID,
		Button:    b.Button,
		CreatedAt: b.CreatedAt,
		Frames:    make([]FrameMessage, len(b.Frames)),
	}
	for i := range b.Frames {
		msg.Frames[i] = NewFrameMessage(b.ID, i, &b.Frames[i])
	}
	return msg
}

// Burst 解码，任何一帧失败则整体失败
func (m BurstMessage) Burst() (Burst, error) {
	b := Burst{ID: m.ID, Button: m.Button, CreatedAt: m.CreatedAt, Frames: make([]iohc.Frame, 0, len(m.Frames))}
	for _, fm := range m.Frames {
		f, err := fm.Frame()
		if err != nil {
			return Burst{}, fmt.Errorf("frame %d of burst %s: %w", fm.Seq, m.ID, err)
		}
		b.Frames = append(b.Frames, f)
	}
	return b, nil
}
