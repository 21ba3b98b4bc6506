package iohc

import "errors"

var (
	// ErrSize 载荷超出帧缓冲容量
	ErrSize = errors.New("iohc: payload exceeds frame capacity")
	// ErrParse 参数无法解析（温度、索引、数值码）
	ErrParse = errors.New("iohc: argument parse error")
	// ErrIndex 注册表索引越界
	ErrIndex = errors.New("iohc: registry index out of range")
	// ErrUnknownButton 未知按键/命令名
	ErrUnknownButton = errors.New("iohc: unknown button")
	// ErrAddress 地址格式错误（必须是3字节/6位十六进制）
	ErrAddress = errors.New("iohc: invalid address")
)
