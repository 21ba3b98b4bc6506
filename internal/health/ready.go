package health

import "sync/atomic"

// Readiness 就绪状态聚合（设备注册表、射频传输）
type Readiness struct {
	registryReady  atomic.Bool
	transportReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetRegistryReady(v bool)  { r.registryReady.Store(v) }
func (r *Readiness) SetTransportReady(v bool) { r.transportReady.Store(v) }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.registryReady.Load() && r.transportReady.Load()
}
