// Package controller 网关的设备控制上下文：持有调度器、设备注册表、验证表与发送备忘，
// 由进程入口构造一次并显式传递给各调用方。
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"github.com/taoyao-code/iohc-gateway/internal/metrics"
	"github.com/taoyao-code/iohc-gateway/internal/outbound"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
	"go.uber.org/zap"
)

// Result 一次命令调用的结果
type Result struct {
	Burst outbound.Burst
	// Defaulted 关键字参数未识别，载荷保留模板默认值
	Defaulted bool
}

// Controller 设备控制器。不加锁，调用方必须在外部串行化所有调用。
type Controller struct {
	scheduler  *outbound.Scheduler
	registry   *registry.Registry
	validity   *iohc.ValidityTable
	addrs      cfgpkg.RadioAddresses
	lastSender iohc.Address
	memo       iohc.Memo
	logger     *zap.Logger
	metrics    *metrics.AppMetrics
}

// New 构造控制器：先尝试建立射频传输，再加载注册表，最后播种验证表。
// 传输建立失败不致命，首次发送时会再次尝试。
func New(ctx context.Context, sched *outbound.Scheduler, reg *registry.Registry, addrs cfgpkg.RadioAddresses, logger *zap.Logger, m *metrics.AppMetrics) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		scheduler:  sched,
		registry:   reg,
		addrs:      addrs,
		lastSender: addrs.MasterFrom,
		logger:     logger,
		metrics:    m,
	}

	if _, err := sched.Transport(ctx); err != nil {
		logger.Warn("radio transport not ready, will retry on first command", zap.Error(err))
	}

	found, err := reg.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("device registry loaded", zap.Bool("found", found), zap.Int("devices", reg.Len()))
	c.observeRegistry()

	if c.validity, err = iohc.NewValidityTable(); err != nil {
		return nil, fmt.Errorf("seed validity table: %w", err)
	}
	return c, nil
}

// Execute 解析 args[0] 为按键名后执行
func (c *Controller) Execute(ctx context.Context, args []string) (Result, error) {
	if len(args) == 0 {
		c.countError(iohc.ErrUnknownButton)
		return Result{}, fmt.Errorf("%w: empty command", iohc.ErrUnknownButton)
	}
	b, err := iohc.ParseButton(args[0])
	if err != nil {
		c.countError(err)
		return Result{}, err
	}
	return c.Cmd(ctx, b, args)
}

// Cmd 构建并提交一个突发，是发送命令的唯一入口。
// 队列在构建前无条件清空；构建失败时不发送任何帧。
func (c *Controller) Cmd(ctx context.Context, b iohc.Button, args []string) (Result, error) {
	if b == iohc.ButtonCheckCmd {
		return c.probe(ctx)
	}

	c.scheduler.Reset()
	plan, err := iohc.Build(b, args, c.addrs.Addressing(c.lastSender), c.registry)
	if err != nil {
		c.countError(err)
		return Result{}, fmt.Errorf("%s: %w", b, err)
	}
	if plan.Defaulted {
		c.logger.Warn("unrecognized keyword, template default kept",
			zap.String("button", b.String()),
			zap.Strings("args", args))
	}
	return c.submit(ctx, plan)
}

// ProbeAll 对验证表中每个待探测条目发一个探测帧，返回探测条数
func (c *Controller) ProbeAll(ctx context.Context) (int, error) {
	res, err := c.probe(ctx)
	if err != nil {
		return 0, err
	}
	return len(res.Burst.Frames), nil
}

func (c *Controller) probe(ctx context.Context) (Result, error) {
	c.scheduler.Reset()
	plan, err := c.validity.ProbeFrames(c.addrs.Gateway, c.addrs.ProbeTarget)
	if err != nil {
		c.countError(err)
		return Result{}, fmt.Errorf("probe: %w", err)
	}
	res, err := c.submit(ctx, plan)
	if err != nil {
		return Result{}, err
	}
	if c.metrics != nil {
		c.metrics.ProbeEntries.Set(float64(len(plan.Frames)))
	}
	c.logger.Info("validity probe pass", zap.Int("entries", len(plan.Frames)))
	return res, nil
}

func (c *Controller) submit(ctx context.Context, plan iohc.Plan) (Result, error) {
	c.scheduler.Add(plan.Frames...)
	burst, err := c.scheduler.Submit(ctx, plan.Button.String())
	if err != nil {
		c.countError(err)
		return Result{}, err
	}
	if len(plan.Frames) > 0 {
		c.memo = plan.Memo
	}

	if c.metrics != nil {
		c.metrics.BurstsTotal.WithLabelValues(plan.Button.String()).Inc()
		c.metrics.FramesTotal.Add(float64(len(plan.Frames)))
	}
	c.logger.Info("burst submitted",
		zap.String("button", plan.Button.String()),
		zap.String("cmd", fmt.Sprintf("%02x", plan.Memo.Command)),
		zap.Int("frames", len(plan.Frames)),
		zap.String("burst_id", burst.ID))
	return Result{Burst: burst, Defaulted: plan.Defaulted}, nil
}

// ScanDump 输出验证表扫描报告
func (c *Controller) ScanDump(w io.Writer) (int, error) {
	return c.validity.Dump(w)
}

// IsFake 源或目标的前3字节等于本网关地址（自发或自收的回环帧）
func (c *Controller) IsFake(src, dst []byte) bool {
	return c.IsOwn(src) || c.IsOwn(dst)
}

// IsOwn 地址的前3字节等于本网关地址
func (c *Controller) IsOwn(addr []byte) bool {
	return c.addrs.Gateway.MatchesPrefix(addr)
}

// NoteSender 记录最近一次向本网关发命令的地址（ack 的目标）
func (c *Controller) NoteSender(a iohc.Address) { c.lastSender = a }

// LastSender 当前 ack 目标
func (c *Controller) LastSender() iohc.Address { return c.lastSender }

// Memo 最近一次发送的命令码与载荷副本
func (c *Controller) Memo() iohc.Memo {
	return iohc.Memo{Command: c.memo.Command, Data: append([]byte(nil), c.memo.Data...)}
}

// RecordValidity 接收路径回写探测分类结果
func (c *Controller) RecordValidity(code, status byte) {
	c.validity.Record(code, status)
	c.logger.Debug("validity recorded",
		zap.String("code", fmt.Sprintf("%02x", code)),
		zap.String("status", iohc.StatusLabel(status)))
}

// Validity 验证表
func (c *Controller) Validity() *iohc.ValidityTable { return c.validity }

// Registry 设备注册表
func (c *Controller) Registry() *registry.Registry { return c.registry }

// Devices 设备记录副本
func (c *Controller) Devices() []registry.DeviceRecord { return c.registry.Records() }

// AddDevice 新增设备（关联完成后调用）
func (c *Controller) AddDevice(rec registry.DeviceRecord) error {
	if err := c.registry.Add(rec); err != nil {
		return err
	}
	c.observeRegistry()
	c.logger.Info("device added",
		zap.String("node", rec.Node.String()),
		zap.String("dst", rec.Destination.String()),
		zap.String("type", rec.Type))
	return nil
}

// SaveDevices 回写注册表
func (c *Controller) SaveDevices(ctx context.Context) error {
	if err := c.registry.Save(ctx); err != nil {
		return err
	}
	c.logger.Info("device registry saved", zap.Int("devices", c.registry.Len()))
	return nil
}

func (c *Controller) observeRegistry() {
	if c.metrics != nil {
		c.metrics.RegistryDevices.Set(float64(c.registry.Len()))
	}
}

func (c *Controller) countError(err error) {
	if c.metrics != nil {
		c.metrics.CommandErrorsTotal.WithLabelValues(ErrorKind(err)).Inc()
	}
}

// ErrorKind 错误分类（用于指标与 API 响应）
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, iohc.ErrParse):
		return "parse"
	case errors.Is(err, iohc.ErrIndex):
		return "index"
	case errors.Is(err, iohc.ErrSize):
		return "size"
	case errors.Is(err, iohc.ErrUnknownButton):
		return "button"
	case errors.Is(err, outbound.ErrNoTransport):
		return "transport"
	default:
		return "other"
	}
}

// HelpText 可用按键列表
func HelpText() string {
	names := make([]string, 0, len(iohc.Buttons()))
	for _, b := range iohc.Buttons() {
		names = append(names, b.String())
	}
	return strings.Join(names, " ")
}
