package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 网关业务指标
type AppMetrics struct {
	BurstsTotal          *prometheus.CounterVec // labels: button
	FramesTotal          prometheus.Counter
	CommandErrorsTotal   *prometheus.CounterVec // labels: kind=parse|index|size|button|transport|other
	ProbeEntries         prometheus.Gauge       // 最近一次探测的条目数
	RegistryDevices      prometheus.Gauge
	TransportFramesTotal *prometheus.CounterVec // labels: result=ok|error|dropped
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		BurstsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iohc_bursts_total",
			Help: "Bursts submitted to the radio transport by button.",
		}, []string{"button"}),
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iohc_frames_total",
			Help: "Frames submitted to the radio transport.",
		}),
		CommandErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iohc_command_errors_total",
			Help: "Rejected command invocations by error kind.",
		}, []string{"kind"}),
		ProbeEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iohc_probe_entries",
			Help: "Entries probed by the last validity probe pass.",
		}),
		RegistryDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iohc_registry_devices",
			Help: "Devices currently in the registry.",
		}),
		TransportFramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iohc_transport_frames_total",
			Help: "Frame writes performed by the transport by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.BurstsTotal, m.FramesTotal, m.CommandErrorsTotal, m.ProbeEntries, m.RegistryDevices, m.TransportFramesTotal)
	return m
}
