package iohc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDests []Address

func (d fakeDests) Len() int { return len(d) }

func (d fakeDests) Destination(i int) (Address, error) {
	if i < 0 || i >= len(d) {
		return Address{}, ErrIndex
	}
	return d[i], nil
}

var (
	testGateway = MustParseAddress("ba11ad")
	testMaster  = MustParseAddress("315824")
	testSlave   = MustParseAddress("054e17")
	testSender  = MustParseAddress("aabbcc")
	testDests   = fakeDests{
		MustParseAddress("111111"),
		MustParseAddress("222222"),
		MustParseAddress("333333"),
	}
)

func testAddressing() Addressing {
	return DefaultAddressing(testGateway, testMaster, testSlave, testSender)
}

func build(t *testing.T, args ...string) Plan {
	t.Helper()
	b, err := ParseButton(args[0])
	require.NoError(t, err)
	p, err := Build(b, args, testAddressing(), testDests)
	require.NoError(t, err)
	return p
}

// 每个按键的黄金字节
func TestBuild_GoldenFrames(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		hex   string
		delay time.Duration
	}{
		{"associate", []string{"associate"}, "c80031ba11ad315824", 0},
		{"powerOn", []string{"powerOn"}, "4c0020ba11ad3158240c60012c", 0},
		{"setTemp", []string{"setTemp", "21.5"}, "4e0020ba11ad1111110c610103d700", 50 * time.Millisecond},
		{"setPresence", []string{"setPresence", "on"}, "4d0020ba11ad3158240c61011001", 0},
		{"setWindow", []string{"setWindow", "open", "2"}, "4d0020ba11ad3333330c61010e01", 50 * time.Millisecond},
		{"midnight", []string{"midnight"}, "4c0020ba11ad3158240c600130", 0},
		{"custom60", []string{"custom60", "0x2c"}, "4c0020ba11ad054e170c60012c", 250 * time.Millisecond},
		{"ack", []string{"ack"}, "480033ba11adaabbcc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(t, tt.args...)
			require.Len(t, p.Frames, 1)
			f := p.Frames[0]
			assert.Equal(t, tt.hex, f.Hex())
			assert.Equal(t, tt.delay, f.Delay)
			assert.Equal(t, Channel2, f.Channel)
			assert.False(t, p.Defaulted)
		})
	}
}

func TestBuild_SetTempDefaultsToFirstDevice(t *testing.T) {
	p := build(t, "settemp", "21.5")
	require.Len(t, p.Frames, 1)
	f := p.Frames[0]
	assert.Equal(t, byte(215), f.Payload()[valueOffset])
	assert.Equal(t, testDests[0], f.Target())
	assert.Equal(t, testGateway, f.Source())
	assert.Equal(t, CmdWritePrivate, p.Memo.Command)
	assert.Equal(t, f.Payload(), p.Memo.Data)
}

func TestBuild_SetModeKeywords(t *testing.T) {
	tests := []struct {
		kw        string
		want      byte
		defaulted bool
	}{
		{"auto", 0x00, false},
		{"MANUAL", 0x01, false},
		{"prog", 0x02, false},
		{"off", 0x04, false},
		{"eco", 0xFF, true},
	}
	for _, tt := range tests {
		t.Run(tt.kw, func(t *testing.T) {
			p := build(t, "setmode", tt.kw)
			require.NotEmpty(t, p.Frames)
			for _, f := range p.Frames {
				assert.Equal(t, tt.want, f.Payload()[valueOffset])
			}
			assert.Equal(t, tt.defaulted, p.Defaulted)
		})
	}
}

func TestBuild_SetModeOneFramePerDevice(t *testing.T) {
	p := build(t, "setmode", "manual")
	require.Len(t, p.Frames, len(testDests))
	for i, f := range p.Frames {
		assert.Equal(t, testDests[i], f.Target(), "frame %d", i)
	}
	// 只有第二帧带延时
	assert.Equal(t, time.Duration(0), p.Frames[0].Delay)
	assert.Equal(t, 250*time.Millisecond, p.Frames[1].Delay)
	assert.Equal(t, time.Duration(0), p.Frames[2].Delay)
}

func TestBuild_SetModeSingleDevice(t *testing.T) {
	p, err := Build(ButtonSetMode, []string{"setmode", "auto"}, testAddressing(), testDests[:1])
	require.NoError(t, err)
	require.Len(t, p.Frames, 1)
	assert.Equal(t, time.Duration(0), p.Frames[0].Delay)
}

func TestBuild_SetModeEmptyRegistry(t *testing.T) {
	_, err := Build(ButtonSetMode, []string{"setmode", "auto"}, testAddressing(), fakeDests{})
	assert.True(t, errors.Is(err, ErrIndex))
}

func TestBuild_Discover28(t *testing.T) {
	p := build(t, "discover28")
	require.Len(t, p.Frames, 10)
	for _, f := range p.Frames {
		assert.Equal(t, BroadcastAddress, f.Target())
		assert.Equal(t, 250*time.Millisecond, f.Delay)
		c1 := f.Ctrl1()
		assert.True(t, c1.StartFrame)
		assert.True(t, c1.EndFrame)
		assert.Equal(t, "c82428ba11ad00fffb", f.Hex())
	}
}

func TestBuild_Discover2A(t *testing.T) {
	p := build(t, "discover2A")
	require.Len(t, p.Frames, 20)
	for i, f := range p.Frames {
		want := BroadcastAddress
		if i < 10 {
			want = RemoteBroadcastAddress
		}
		assert.Equal(t, want, f.Target(), "frame %d", i)
		assert.Equal(t, 250*time.Millisecond, f.Delay)
		assert.Equal(t, CmdDiscoverRemote, f.Command())
		assert.Equal(t, byte(0xD4), f.Bytes()[0])
		assert.Equal(t, byte(0x24), f.Bytes()[1])
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    Button
		args []string
		want error
	}{
		{"温度非数字", ButtonSetTemp, []string{"settemp", "warm"}, ErrParse},
		{"温度缺失", ButtonSetTemp, []string{"settemp"}, ErrParse},
		{"索引非数字", ButtonSetTemp, []string{"settemp", "20", "x"}, ErrParse},
		{"索引越界", ButtonSetTemp, []string{"settemp", "20", "3"}, ErrIndex},
		{"负索引", ButtonSetWindow, []string{"setwindow", "open", "-1"}, ErrIndex},
		{"custom60 超范围", ButtonCustom60, []string{"custom60", "256"}, ErrParse},
		{"custom60 非数字", ButtonCustom60, []string{"custom60", "abc"}, ErrParse},
		{"checkCmd 不由目录构建", ButtonCheckCmd, []string{"checkcmd"}, ErrUnknownButton},
		{"未知按键", Button(99), nil, ErrUnknownButton},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(tt.b, tt.args, testAddressing(), testDests)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, p.Frames)
		})
	}
}

func TestParseButton(t *testing.T) {
	b, err := ParseButton("SETTEMP")
	require.NoError(t, err)
	assert.Equal(t, ButtonSetTemp, b)

	_, err = ParseButton("reboot")
	assert.True(t, errors.Is(err, ErrUnknownButton))

	assert.Len(t, Buttons(), 12)
	assert.Equal(t, "discover2A", ButtonDiscover2A.String())
}

func TestParseTemperature(t *testing.T) {
	v, err := ParseTemperature("21.5")
	require.NoError(t, err)
	assert.Equal(t, byte(215), v)

	v, err = ParseTemperature("7")
	require.NoError(t, err)
	assert.Equal(t, byte(70), v)

	// 超过一个字节时截断
	v, err = ParseTemperature("30")
	require.NoError(t, err)
	assert.Equal(t, byte(300&0xFF), v)
}
