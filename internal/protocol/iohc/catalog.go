package iohc

import (
	"fmt"
	"strings"
	"time"
)

// 命令码
const (
	CmdWritePrivate   byte = 0x20
	CmdDiscover       byte = 0x28
	CmdDiscoverRemote byte = 0x2A
	CmdAskChallenge   byte = 0x31
	CmdKeyTransferAck byte = 0x33
)

const (
	discoverBurstSize  = 10
	discoverRemoteSize = 20
)

// Button 逻辑命令（模拟设备按键）
type Button int

const (
	ButtonAssociate Button = iota + 1
	ButtonPowerOn
	ButtonSetTemp
	ButtonSetMode
	ButtonSetPresence
	ButtonSetWindow
	ButtonMidnight
	ButtonCustom60
	ButtonDiscover28
	ButtonDiscover2A
	ButtonAck
	ButtonCheckCmd
)

var buttonNames = map[Button]string{
	ButtonAssociate:   "associate",
	ButtonPowerOn:     "powerOn",
	ButtonSetTemp:     "setTemp",
	ButtonSetMode:     "setMode",
	ButtonSetPresence: "setPresence",
	ButtonSetWindow:   "setWindow",
	ButtonMidnight:    "midnight",
	ButtonCustom60:    "custom60",
	ButtonDiscover28:  "discover28",
	ButtonDiscover2A:  "discover2A",
	ButtonAck:         "ack",
	ButtonCheckCmd:    "checkCmd",
}

// Buttons 全部按键，顺序稳定（用于帮助信息）
func Buttons() []Button {
	out := make([]Button, 0, len(buttonNames))
	for b := ButtonAssociate; b <= ButtonCheckCmd; b++ {
		out = append(out, b)
	}
	return out
}

func (b Button) String() string {
	if n, ok := buttonNames[b]; ok {
		return n
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// ParseButton 大小写不敏感解析按键名
func ParseButton(s string) (Button, error) {
	s = strings.TrimSpace(s)
	for b, n := range buttonNames {
		if strings.EqualFold(n, s) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownButton, s)
}

// Addressing 命令寻址所需的固定地址
type Addressing struct {
	Gateway         Address // 本网关地址，所有帧的源地址
	Master          Address // master_to：associate/powerOn/setPresence/midnight 目标
	Slave           Address // custom60 目标
	LastSender      Address // 最近一次向本网关发命令的地址，ack 目标
	Broadcast       Address
	RemoteBroadcast Address
}

// DefaultAddressing 返回带协议固定广播地址的寻址配置
func DefaultAddressing(gateway, master, slave, lastSender Address) Addressing {
	return Addressing{
		Gateway:         gateway,
		Master:          master,
		Slave:           slave,
		LastSender:      lastSender,
		Broadcast:       BroadcastAddress,
		RemoteBroadcast: RemoteBroadcastAddress,
	}
}

// Destinations 按注册表索引查找私有写命令的目标地址
type Destinations interface {
	Len() int
	Destination(i int) (Address, error)
}

// Memo 最近一次发送的命令码与载荷，供应答关联
type Memo struct {
	Command byte
	Data    []byte
}

// Plan 一次命令调用生成的完整帧序列
type Plan struct {
	Button Button
	Frames []Frame
	Memo   Memo
	// Defaulted 关键字参数未识别，载荷沿用模板默认字节
	Defaulted bool
}

// 载荷模板
var (
	tmplPowerOn     = []byte{0x0C, 0x60, 0x01, 0x2C}
	tmplSetTemp     = []byte{0x0C, 0x61, 0x01, 0x03, 0xFF, 0x00}
	tmplSetMode     = []byte{0x0C, 0x61, 0x01, 0x00, 0xFF}
	tmplSetPresence = []byte{0x0C, 0x61, 0x01, 0x10, 0xFF}
	tmplSetWindow   = []byte{0x0C, 0x61, 0x01, 0x0E, 0xFF}
	tmplMidnight    = []byte{0x0C, 0x60, 0x01, 0x30}
	tmplCustom60    = []byte{0x0C, 0x60, 0x01, 0xFF}
	tmplDiscover2A  = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x10, 0x11, 0x12}
)

const (
	valueOffset  = 4 // setTemp/setMode/setPresence/setWindow 参数字节
	custom60Slot = 3

	privateDelay       = 50 * time.Millisecond
	answerDelay        = 250 * time.Millisecond
	setModeDelay       = 250 * time.Millisecond
	setModeDelayedSlot = 1 // 仅第二帧加延时
)

var (
	flagsStart        = Flags{StartFrame: true}
	flagsStartEnd     = Flags{StartFrame: true, EndFrame: true}
	flagsBroadcastLPM = Flags{StartFrame: true, EndFrame: true, LowPowerMode: true, Priority: true}
)

// Build 将按键与字符串参数转换为帧序列。args[0] 为按键名，其后为按键相关参数。
// 失败时不返回任何帧。checkCmd 由验证探测引擎处理，不在此构建。
func Build(b Button, args []string, addr Addressing, dst Destinations) (Plan, error) {
	p := Plan{Button: b}
	var err error

	switch b {
	case ButtonAssociate:
		err = p.add(CmdAskChallenge, nil, flagsStartEnd, addr.Gateway, addr.Master, 0)

	case ButtonPowerOn:
		err = p.add(CmdWritePrivate, tmplPowerOn, flagsStart, addr.Gateway, addr.Master, 0)

	case ButtonSetTemp:
		var s string
		if s, err = arg(args, 1, "temperature"); err != nil {
			return Plan{}, err
		}
		payload := clone(tmplSetTemp)
		if payload[valueOffset], err = ParseTemperature(s); err != nil {
			return Plan{}, err
		}
		var target Address
		if target, err = indexedTarget(args, 2, dst); err != nil {
			return Plan{}, err
		}
		err = p.add(CmdWritePrivate, payload, flagsStart, addr.Gateway, target, privateDelay)

	case ButtonSetMode:
		err = p.setMode(args, addr, dst)

	case ButtonSetPresence:
		var s string
		if s, err = arg(args, 1, "presence"); err != nil {
			return Plan{}, err
		}
		payload := clone(tmplSetPresence)
		kw := presenceKeywords.parse(s, payload[valueOffset])
		payload[valueOffset], p.Defaulted = kw.Value, kw.Defaulted
		err = p.add(CmdWritePrivate, payload, flagsStart, addr.Gateway, addr.Master, 0)

	case ButtonSetWindow:
		var s string
		if s, err = arg(args, 1, "window"); err != nil {
			return Plan{}, err
		}
		payload := clone(tmplSetWindow)
		kw := windowKeywords.parse(s, payload[valueOffset])
		payload[valueOffset], p.Defaulted = kw.Value, kw.Defaulted
		var target Address
		if target, err = indexedTarget(args, 2, dst); err != nil {
			return Plan{}, err
		}
		err = p.add(CmdWritePrivate, payload, flagsStart, addr.Gateway, target, privateDelay)

	case ButtonMidnight:
		err = p.add(CmdWritePrivate, tmplMidnight, flagsStart, addr.Gateway, addr.Master, 0)

	case ButtonCustom60:
		var s string
		if s, err = arg(args, 1, "code"); err != nil {
			return Plan{}, err
		}
		payload := clone(tmplCustom60)
		if payload[custom60Slot], err = ParseCode(s); err != nil {
			return Plan{}, err
		}
		err = p.add(CmdWritePrivate, payload, flagsStart, addr.Gateway, addr.Slave, answerDelay)

	case ButtonDiscover28:
		for i := 0; i < discoverBurstSize && err == nil; i++ {
			err = p.add(CmdDiscover, nil, flagsBroadcastLPM, addr.Gateway, addr.Broadcast, answerDelay)
		}

	case ButtonDiscover2A:
		for i := 0; i < discoverRemoteSize && err == nil; i++ {
			target := addr.Broadcast
			if i < discoverBurstSize {
				target = addr.RemoteBroadcast
			}
			err = p.add(CmdDiscoverRemote, tmplDiscover2A, flagsBroadcastLPM, addr.Gateway, target, answerDelay)
		}

	case ButtonAck:
		err = p.add(CmdKeyTransferAck, nil, flagsStart, addr.Gateway, addr.LastSender, 0)

	default:
		return Plan{}, fmt.Errorf("%w: %s has no payload template", ErrUnknownButton, b)
	}

	if err != nil {
		return Plan{}, err
	}
	return p, nil
}

// setMode 对注册表中每个设备各发一帧，只有第二帧带 250ms 延时
func (p *Plan) setMode(args []string, addr Addressing, dst Destinations) error {
	s, err := arg(args, 1, "mode")
	if err != nil {
		return err
	}
	payload := clone(tmplSetMode)
	kw := modeKeywords.parse(s, payload[valueOffset])
	payload[valueOffset], p.Defaulted = kw.Value, kw.Defaulted

	n := dst.Len()
	if n == 0 {
		return fmt.Errorf("%w: no registered device", ErrIndex)
	}
	for i := 0; i < n; i++ {
		target, err := dst.Destination(i)
		if err != nil {
			return err
		}
		if err := p.add(CmdWritePrivate, payload, flagsStart, addr.Gateway, target, 0); err != nil {
			return err
		}
	}
	if len(p.Frames) > setModeDelayedSlot {
		p.Frames[setModeDelayedSlot].Delay = setModeDelay
	}
	return nil
}

// add 构造一帧并追加，同时更新发送备忘
func (p *Plan) add(cmd byte, payload []byte, fl Flags, src, dst Address, delay time.Duration) error {
	f, err := Forge(payload)
	if err != nil {
		return err
	}
	f.SetCommand(cmd)
	f.ApplyFlags(fl)
	f.SetSource(src)
	f.SetTarget(dst)
	f.Delay = delay
	p.Frames = append(p.Frames, f)
	p.Memo = Memo{Command: cmd, Data: clone(payload)}
	return nil
}

func indexedTarget(args []string, pos int, dst Destinations) (Address, error) {
	idx, err := parseIndex(args, pos)
	if err != nil {
		return Address{}, err
	}
	if idx < 0 || idx >= dst.Len() {
		return Address{}, fmt.Errorf("%w: %d (registry has %d)", ErrIndex, idx, dst.Len())
	}
	return dst.Destination(idx)
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
