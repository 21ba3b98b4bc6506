package iohc

// 帧头布局（9字节）：ctrl1(1) + ctrl2(1) + cmd(1) + source(3) + target(3)
const (
	HeaderSize = 9

	offsetCtrl1  = 0
	offsetCtrl2  = 1
	offsetCmd    = 2
	offsetSource = 3
	offsetTarget = 6
)

// 控制字节1位定义：bit0-4 长度，bit5 协议版本，bit6 起始帧，bit7 结束帧
// 长度字段计数 ctrl1 之后的字节，即整帧长度-1
const (
	ctrl1LengthMask  byte = 0x1F
	ctrl1ProtocolBit byte = 1 << 5
	ctrl1StartBit    byte = 1 << 6
	ctrl1EndBit      byte = 1 << 7
)

// 控制字节2位定义：bit2 优先级，bit5 低功耗模式，其余位保留
const (
	ctrl2PriorityBit byte = 1 << 2
	ctrl2LPMBit      byte = 1 << 5
	ctrl2Reserved         = ^(ctrl2PriorityBit | ctrl2LPMBit)
)

// Ctrl1 控制字节1的字段视图
type Ctrl1 struct {
	Length     uint8 // 5位
	Protocol   bool  // false = 2W
	StartFrame bool
	EndFrame   bool
}

// EncodeCtrl1 移位/掩码编码控制字节1
func EncodeCtrl1(c Ctrl1) byte {
	b := c.Length & ctrl1LengthMask
	if c.Protocol {
		b |= ctrl1ProtocolBit
	}
	if c.StartFrame {
		b |= ctrl1StartBit
	}
	if c.EndFrame {
		b |= ctrl1EndBit
	}
	return b
}

// DecodeCtrl1 解码控制字节1
func DecodeCtrl1(b byte) Ctrl1 {
	return Ctrl1{
		Length:     b & ctrl1LengthMask,
		Protocol:   b&ctrl1ProtocolBit != 0,
		StartFrame: b&ctrl1StartBit != 0,
		EndFrame:   b&ctrl1EndBit != 0,
	}
}

// Ctrl2 控制字节2的字段视图，Reserved 保存未定义位，编码时原样写回
type Ctrl2 struct {
	LowPowerMode bool
	Priority     bool
	Reserved     byte
}

// EncodeCtrl2 编码控制字节2
func EncodeCtrl2(c Ctrl2) byte {
	b := c.Reserved & ctrl2Reserved
	if c.LowPowerMode {
		b |= ctrl2LPMBit
	}
	if c.Priority {
		b |= ctrl2PriorityBit
	}
	return b
}

// DecodeCtrl2 解码控制字节2
func DecodeCtrl2(b byte) Ctrl2 {
	return Ctrl2{
		LowPowerMode: b&ctrl2LPMBit != 0,
		Priority:     b&ctrl2PriorityBit != 0,
		Reserved:     b & ctrl2Reserved,
	}
}

// Flags 命令对帧头标志位的覆盖
type Flags struct {
	StartFrame   bool
	EndFrame     bool
	LowPowerMode bool
	Priority     bool
}

func setBit(b, bit byte, on bool) byte {
	if on {
		return b | bit
	}
	return b &^ bit
}
