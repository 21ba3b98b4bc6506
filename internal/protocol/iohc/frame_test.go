package iohc

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForge_LengthFieldAndPayloadOffset(t *testing.T) {
	for l := 0; l <= MaxPayloadSize; l++ {
		payload := bytes.Repeat([]byte{0xA5}, l)
		f, err := Forge(payload)
		require.NoError(t, err, "len=%d", l)

		c1 := f.Ctrl1()
		assert.Equal(t, uint8(HeaderSize-1+l), c1.Length, "len=%d", l)
		assert.True(t, c1.StartFrame, "len=%d", l)
		assert.False(t, c1.EndFrame, "len=%d", l)
		assert.False(t, c1.Protocol, "len=%d", l)
		assert.Equal(t, byte(0), f.Bytes()[1], "ctrl2 must be cleared")
		assert.Equal(t, HeaderSize+l, f.Len())
		assert.Equal(t, payload, f.Bytes()[HeaderSize:])
		assert.Equal(t, payload, f.Payload())
	}
}

func TestForge_WholeByteAddition(t *testing.T) {
	// ctrl1 初值 0x48（长度8 + 起始帧），载荷长度直接加到整个字节上
	f, err := Forge([]byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, byte(0x4E), f.Bytes()[0])
}

func TestForge_Defaults(t *testing.T) {
	f, err := Forge(nil)
	require.NoError(t, err)
	assert.Equal(t, Channel2, f.Channel)
	assert.Equal(t, 25*time.Millisecond, f.RepeatInterval)
	assert.Equal(t, 0, f.Repeat)
	assert.Equal(t, time.Duration(0), f.Delay)
	assert.False(t, f.Lock)
	assert.Equal(t, "868.950", f.Channel.String())
}

func TestForge_SizeError(t *testing.T) {
	f, err := Forge(make([]byte, MaxPayloadSize+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSize))
	assert.Equal(t, 0, f.Len(), "no partial frame on failure")
}

func TestCtrlBytes_EncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		c1   Ctrl1
		want byte
	}{
		{"默认出站", Ctrl1{Length: 8, StartFrame: true}, 0x48},
		{"起始+结束", Ctrl1{Length: 8, StartFrame: true, EndFrame: true}, 0xC8},
		{"1W协议", Ctrl1{Length: 0x1F, Protocol: true}, 0x3F},
		{"长度截断为5位", Ctrl1{Length: 0xFF}, 0x1F},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeCtrl1(tt.c1)
			assert.Equal(t, tt.want, got)
			back := DecodeCtrl1(got)
			assert.Equal(t, EncodeCtrl1(back), got)
		})
	}

	c2 := Ctrl2{LowPowerMode: true, Priority: true}
	assert.Equal(t, byte(0x24), EncodeCtrl2(c2))

	// 保留位原样保留
	raw := byte(0xFF)
	dec := DecodeCtrl2(raw)
	assert.True(t, dec.LowPowerMode)
	assert.True(t, dec.Priority)
	assert.Equal(t, raw, EncodeCtrl2(dec))
}

func TestApplyFlags_KeepsLength(t *testing.T) {
	f, err := Forge(make([]byte, 21))
	require.NoError(t, err)
	f.ApplyFlags(Flags{StartFrame: true, EndFrame: true, LowPowerMode: true, Priority: true})
	assert.Equal(t, uint8(29), f.Ctrl1().Length)
	assert.Equal(t, byte(0xDD), f.Bytes()[0])
	assert.Equal(t, byte(0x24), f.Bytes()[1])

	f.ApplyFlags(Flags{StartFrame: true})
	assert.Equal(t, byte(0x5D), f.Bytes()[0])
	assert.Equal(t, byte(0x00), f.Bytes()[1])
}

func TestFrame_HeaderFields(t *testing.T) {
	f, err := Forge([]byte{0x0C, 0x60, 0x01, 0x2C})
	require.NoError(t, err)
	f.SetCommand(CmdWritePrivate)
	f.SetSource(MustParseAddress("ba11ad"))
	f.SetTarget(MustParseAddress("315824"))

	assert.Equal(t, "4c0020ba11ad3158240c60012c", f.Hex())
	assert.Equal(t, CmdWritePrivate, f.Command())
	assert.Equal(t, "ba11ad", f.Source().String())
	assert.Equal(t, "315824", f.Target().String())

	// Bytes 返回副本
	b := f.Bytes()
	b[0] = 0
	assert.Equal(t, byte(0x4c), f.Bytes()[0])
	assert.Contains(t, f.String(), "CMD 20")
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("00FFFB")
	require.NoError(t, err)
	assert.Equal(t, BroadcastAddress, a)

	for _, bad := range []string{"", "00ff", "00fffbaa", "zzzzzz"} {
		_, err := ParseAddress(bad)
		assert.True(t, errors.Is(err, ErrAddress), "input %q", bad)
	}

	assert.True(t, a.MatchesPrefix([]byte{0x00, 0xFF, 0xFB, 0x12}))
	assert.False(t, a.MatchesPrefix([]byte{0x00, 0xFF}))
	assert.False(t, a.MatchesPrefix([]byte{0x00, 0xFF, 0xFC}))

	var txt Address
	require.NoError(t, txt.UnmarshalText([]byte("0842e3")))
	out, _ := txt.MarshalText()
	assert.Equal(t, "0842e3", string(out))
	assert.Equal(t, []byte{0x08, 0x42, 0xe3}, mustHex(t, string(out)))
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecode(t *testing.T) {
	f, err := Forge([]byte{0x0C, 0x60, 0x01, 0x30})
	require.NoError(t, err)
	f.SetCommand(CmdWritePrivate)
	f.SetTarget(MustParseAddress("315824"))

	got, err := Decode(f.Bytes())
	require.NoError(t, err)
	assert.Equal(t, f.Hex(), got.Hex())
	assert.Equal(t, DefaultChannel, got.Channel)

	_, err = Decode([]byte{0x48, 0x00})
	assert.True(t, errors.Is(err, ErrSize))

	bad := f.Bytes()
	bad[0] = 0x48 // 长度字段与实际字节数不符
	_, err = Decode(bad)
	assert.True(t, errors.Is(err, ErrParse))
}
