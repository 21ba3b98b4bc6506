package iohc

import (
	"fmt"
	"time"
)

// ProbeDelay 每个探测帧之间给远端应答预留的时间
const ProbeDelay = 245 * time.Millisecond

var probeFlags = Flags{StartFrame: true, EndFrame: false, LowPowerMode: true, Priority: true}

// 探测载荷的字节来源
var (
	probeACEI     = []byte{0x01, 0xE7, 0x00, 0x00, 0x00, 0x00}
	probeCounting = []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x10, 0x11,
		0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x20, 0x21,
	}
	probe03 = []byte{0x03, 0x00, 0x00}
	probe0C = []byte{0xD8, 0x00, 0x00, 0x00}
	probe0D = []byte{0x05, 0xAA, 0x0D, 0x00, 0x00}
)

type probeShape struct {
	source []byte
	length int
}

func (s probeShape) payload() []byte { return clone(s.source[:s.length]) }

func counting(n int) probeShape { return probeShape{source: probeCounting, length: n} }
func whole(b []byte) probeShape { return probeShape{source: b, length: len(b)} }

// probeShapes 命令码 → 设备要求的探测载荷。表外的命令码发送空载荷。
var probeShapes = map[byte]probeShape{
	0x00: whole(probeACEI),
	0x01: whole(probeACEI),
	0x03: whole(probe03),
	0x04: counting(14),
	0x0B: whole(probeACEI),
	0x0C: whole(probe0C),
	0x0D: whole(probe0D),
	0x0E: whole(probeACEI),
	0x14: counting(2),
	0x19: counting(1),
	0x1E: whole(probeACEI),
	0x23: whole(probeACEI),
	0x2A: counting(12),
	0x32: counting(16),
	0x38: counting(6),
	0x3C: counting(6),
	0x3D: counting(6),
	0x46: counting(9),
	0x48: counting(9),
	0x4A: counting(18),
	0x52: counting(16),
	0x60: counting(21),
	0x64: counting(2),
	0x6E: counting(9),
	0x6F: counting(9),
	0x73: whole(probe03),
	0x82: counting(21),
	0x8A: counting(18),
	0x8B: counting(1),
	0x92: counting(16),
	0x96: counting(12),
}

// ProbeLength 探测载荷长度
func ProbeLength(code byte) int {
	if s, ok := probeShapes[code]; ok {
		return s.length
	}
	return 0
}

// ProbePayload 探测载荷副本
func ProbePayload(code byte) []byte {
	if s, ok := probeShapes[code]; ok {
		return s.payload()
	}
	return []byte{}
}

func validateProbeShapes(codes []byte) error {
	for code, s := range probeShapes {
		if s.length < 0 || s.length > len(s.source) || s.length > MaxPayloadSize {
			return fmt.Errorf("%w: probe payload for %02x has length %d", ErrSize, code, s.length)
		}
	}
	seen := make(map[byte]bool, len(codes))
	for _, c := range codes {
		if seen[c] {
			return fmt.Errorf("iohc: duplicate candidate code %02x", c)
		}
		seen[c] = true
	}
	return nil
}

// ProbeFrames 为每个待探测条目生成一个探测帧：源为网关，目标为固定探测地址，
// 置低功耗与优先级位，起始=1 结束=0，延时245ms。返回帧按命令码升序。
func (t *ValidityTable) ProbeFrames(src, dst Address) (Plan, error) {
	p := Plan{Button: ButtonCheckCmd}
	for _, code := range t.Codes() {
		if !t.Eligible(code) {
			continue
		}
		if err := p.add(code, ProbePayload(code), probeFlags, src, dst, ProbeDelay); err != nil {
			return Plan{}, err
		}
	}
	return p, nil
}
