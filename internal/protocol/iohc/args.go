package iohc

import (
	"fmt"
	"strconv"
	"strings"
)

// Keyword 关键字参数的解析结果。
// Defaulted=true 表示关键字未识别，沿用模板默认字节（保留历史行为，但显式上报）。
type Keyword struct {
	Value     byte
	Defaulted bool
}

type keywordTable map[string]byte

var (
	modeKeywords = keywordTable{
		"auto":   0x00,
		"manual": 0x01,
		"prog":   0x02,
		"off":    0x04,
	}
	presenceKeywords = keywordTable{
		"on":  0x01,
		"off": 0x00,
	}
	windowKeywords = keywordTable{
		"open":  0x01,
		"close": 0x00,
	}
)

// parse 大小写不敏感匹配；未识别时返回模板默认值并标记 Defaulted
func (t keywordTable) parse(s string, def byte) Keyword {
	if v, ok := t[strings.ToLower(strings.TrimSpace(s))]; ok {
		return Keyword{Value: v}
	}
	return Keyword{Value: def, Defaulted: true}
}

// arg 取第 pos 个参数，缺失时返回 ErrParse
func arg(args []string, pos int, name string) (string, error) {
	if pos >= len(args) {
		return "", fmt.Errorf("%w: missing %s argument", ErrParse, name)
	}
	return args[pos], nil
}

// ParseTemperature 十进制温度字符串 → 0.1°C 单位并截断为1字节（21.5 → 215）
func ParseTemperature(s string) (byte, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, fmt.Errorf("%w: temperature %q", ErrParse, s)
	}
	return byte(int(float32(v) * 10)), nil
}

// parseIndex 可选的注册表索引参数，缺省为0
func parseIndex(args []string, pos int) (int, error) {
	if pos >= len(args) {
		return 0, nil
	}
	idx, err := strconv.Atoi(strings.TrimSpace(args[pos]))
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrParse, args[pos])
	}
	return idx, nil
}

// ParseCode 原始数值码，支持十进制与 0x 前缀十六进制，范围 0..255
func ParseCode(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: code %q", ErrParse, s)
	}
	return byte(v), nil
}
