package app

import (
	"context"
	"io"
	"sync"

	"github.com/taoyao-code/iohc-gateway/internal/controller"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
)

// Gateway 串行化所有对控制器的访问。控制器本身不加锁，
// HTTP、控制台与周期探测都必须经由此处调用。
type Gateway struct {
	mu   sync.Mutex
	ctrl *controller.Controller
}

// NewGateway 包装控制器
func NewGateway(ctrl *controller.Controller) *Gateway {
	return &Gateway{ctrl: ctrl}
}

// Execute 解析并执行一条命令
func (g *Gateway) Execute(ctx context.Context, args []string) (controller.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.Execute(ctx, args)
}

// ProbeAll 执行一次有效性探测
func (g *Gateway) ProbeAll(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.ProbeAll(ctx)
}

// ScanDump 输出验证表扫描报告
func (g *Gateway) ScanDump(w io.Writer) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.ScanDump(w)
}

// Devices 设备记录副本
func (g *Gateway) Devices() []registry.DeviceRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.Devices()
}

// AddDevice 新增设备
func (g *Gateway) AddDevice(rec registry.DeviceRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.AddDevice(rec)
}

// SaveDevices 回写注册表
func (g *Gateway) SaveDevices(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.SaveDevices(ctx)
}

// Memo 最近一次发送的命令
func (g *Gateway) Memo() iohc.Memo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.Memo()
}

// RecordValidity 回写探测状态
func (g *Gateway) RecordValidity(code, status byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctrl.RecordValidity(code, status)
}

// IsFake 回环帧判断
func (g *Gateway) IsFake(src, dst []byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.IsFake(src, dst)
}

// IsOwn 地址是否属于本网关
func (g *Gateway) IsOwn(addr []byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.IsOwn(addr)
}

// NoteSender 记录 ack 目标
func (g *Gateway) NoteSender(a iohc.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctrl.NoteSender(a)
}
