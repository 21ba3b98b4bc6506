package iohc

import (
	"bufio"
	"fmt"
	"io"
)

// 验证表状态字节
const (
	StatusUntested byte = 0x00
	StatusExcluded byte = 0x05 // 已测试，仍参与探测（包括 0x19）
	StatusHidden   byte = 0x08 // 扫描报告中不显示
	StatusAuth     byte = 0x3C // 需要认证
	StatusNotReady byte = 0x80 // 未就绪
)

// seedCodes 协议研究得出的候选命令码（其余码在 2W 设备上未实现）
var seedCodes = []byte{
	0x00, 0x01, 0x03, 0x0a, 0x0c, 0x19, 0x1e, 0x20, 0x23, 0x28, 0x2a, 0x2c, 0x2e, 0x31, 0x32, 0x36, 0x38, 0x39, 0x3c, 0x46, 0x48, 0x4a, 0x4b,
	0x50, 0x52, 0x54, 0x56, 0x60, 0x64, 0x6e, 0x6f, 0x71, 0x73, 0x80, 0x82, 0x84, 0x86, 0x88, 0x8a, 0x8b, 0x8e, 0x90, 0x92, 0x94, 0x96, 0x98,
	// 固件中未出现
	0x02, 0x0b, 0x0e, 0x14, 0x16, 0x25, 0x30, 0x34, 0x3a, 0x3d, 0x58,
}

// SeedCodes 返回候选命令码副本
func SeedCodes() []byte { return clone(seedCodes) }

type validityEntry struct {
	present bool
	status  byte
}

// ValidityTable 候选命令码 → 状态字节。按命令码升序遍历。
// 外部接收路径通过 Record 回写分类结果。
type ValidityTable struct {
	entries [256]validityEntry
	size    int
}

// NewValidityTable 创建并播种验证表，所有条目状态为0
func NewValidityTable() (*ValidityTable, error) {
	t := &ValidityTable{}
	if err := t.Seed(); err != nil {
		return nil, err
	}
	return t, nil
}

// Seed 重置为初始候选集；同时校验探测载荷表
func (t *ValidityTable) Seed() error {
	if err := validateProbeShapes(seedCodes); err != nil {
		return err
	}
	t.entries = [256]validityEntry{}
	t.size = 0
	for _, c := range seedCodes {
		t.Record(c, StatusUntested)
	}
	return nil
}

// Record 写入某命令码的状态；未知命令码会加入表中
func (t *ValidityTable) Record(code, status byte) {
	e := &t.entries[code]
	if !e.present {
		e.present = true
		t.size++
	}
	e.status = status
}

// Status 查询状态
func (t *ValidityTable) Status(code byte) (byte, bool) {
	e := t.entries[code]
	return e.status, e.present
}

// Len 条目数
func (t *ValidityTable) Len() int { return t.size }

// Codes 升序返回所有命令码
func (t *ValidityTable) Codes() []byte {
	out := make([]byte, 0, t.size)
	for c := 0; c < len(t.entries); c++ {
		if t.entries[c].present {
			out = append(out, byte(c))
		}
	}
	return out
}

// Eligible 状态为0或5的条目需要探测（0x19 在状态5时同样探测），其余非零状态跳过
func (t *ValidityTable) Eligible(code byte) bool {
	e := t.entries[code]
	if !e.present {
		return false
	}
	// 旧固件的条件是 status==0 || (status==5 && code!=0x19)，即 0x19 在状态5时不探测；
	// 这里状态5一律探测，0x19 也不例外
	return e.status == StatusUntested || e.status == StatusExcluded
}

// StatusLabel 报告中的状态显示
func StatusLabel(status byte) string {
	switch status {
	case StatusAuth:
		return "AUTH"
	case StatusNotReady:
		return "NRDY"
	default:
		return fmt.Sprintf("%02x", status)
	}
}

const dumpPerLine = 16

// Dump 输出扫描报告：跳过状态0x08，0x3C 显示 AUTH，0x80 显示 NRDY，其余两位十六进制；
// 每16条换行，末尾给出显示条数。返回显示条数。
func (t *ValidityTable) Dump(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "*********************** Scan result ***********************")

	count := 0
	for _, code := range t.Codes() {
		status := t.entries[code].status
		if status == StatusHidden {
			continue
		}
		switch status {
		case StatusAuth, StatusNotReady:
			fmt.Fprintf(bw, "%02x=%s ", code, StatusLabel(status))
		default:
			fmt.Fprintf(bw, "%02x=%s\t", code, StatusLabel(status))
		}
		count++
		if count%dumpPerLine == 0 {
			fmt.Fprintln(bw)
		}
	}
	if count%dumpPerLine != 0 {
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "%d toCheck\n", count)
	return count, bw.Flush()
}
