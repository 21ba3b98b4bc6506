package iohc

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressSize 设备地址固定3字节
const AddressSize = 3

// Address 3字节设备地址（网关自身或远端设备），按字节比较，无顺序语义
type Address [AddressSize]byte

// 协议研究中观察到的固定地址
var (
	// BroadcastAddress discover 0x28 使用的广播地址
	BroadcastAddress = Address{0x00, 0xFF, 0xFB}
	// RemoteBroadcastAddress discover 0x2A 前半段使用的广播地址
	RemoteBroadcastAddress = Address{0x00, 0x0D, 0x3B}
)

// ParseAddress 解析6位十六进制地址，如 "ba11ad"
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if len(s) != AddressSize*2 {
		return a, fmt.Errorf("%w: %q must be %d hex digits", ErrAddress, s, AddressSize*2)
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("%w: %q: %v", ErrAddress, s, err)
	}
	return a, nil
}

// MustParseAddress 解析失败时 panic，仅用于常量初始化与测试
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String 返回小写十六进制表示
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero 判断是否为全零地址
func (a Address) IsZero() bool {
	return a == Address{}
}

// MatchesPrefix 判断 b 的前3字节是否等于该地址；b 不足3字节时返回 false
func (a Address) MatchesPrefix(b []byte) bool {
	if len(b) < AddressSize {
		return false
	}
	return bytes.Equal(a[:], b[:AddressSize])
}

// MarshalText 实现 encoding.TextMarshaler，JSON/YAML 中以十六进制字符串出现
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
