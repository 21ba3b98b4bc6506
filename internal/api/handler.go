package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taoyao-code/iohc-gateway/internal/controller"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
	"go.uber.org/zap"
)

// Gateway 命令接口依赖的网关操作。实现方负责串行化调用。
type Gateway interface {
	Execute(ctx context.Context, args []string) (controller.Result, error)
	ProbeAll(ctx context.Context) (int, error)
	ScanDump(w io.Writer) (int, error)
	Devices() []registry.DeviceRecord
	AddDevice(rec registry.DeviceRecord) error
	SaveDevices(ctx context.Context) error
	Memo() iohc.Memo
	RecordValidity(code, status byte)
	IsFake(src, dst []byte) bool
	IsOwn(addr []byte) bool
	NoteSender(a iohc.Address)
}

// Handler 命令API处理器
type Handler struct {
	gw     Gateway
	logger *zap.Logger
}

// NewHandler 创建命令API处理器
func NewHandler(gw Gateway, logger *zap.Logger) *Handler {
	return &Handler{gw: gw, logger: logger}
}

// CmdRequest 命令请求，args[0] 为按键名
type CmdRequest struct {
	Args []string `json:"args" binding:"required,min=1"`
}

// BurstResponse 已提交突发的摘要
type BurstResponse struct {
	BurstID   string   `json:"burst_id"`
	Button    string   `json:"button"`
	Frames    []string `json:"frames"` // 十六进制
	Defaulted bool     `json:"defaulted"`
}

func newBurstResponse(res controller.Result) BurstResponse {
	out := BurstResponse{
		BurstID:   res.Burst.ID,
		Button:    res.Burst.Button,
		Frames:    make([]string, len(res.Burst.Frames)),
		Defaulted: res.Defaulted,
	}
	for i := range res.Burst.Frames {
		out.Frames[i] = res.Burst.Frames[i].Hex()
	}
	return out
}

// Cmd 构建并发送命令
// @Summary 发送命令
// @Description 按键名 + 参数，例如 {"args":["settemp","21.5","0"]}
// @Tags 命令
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body CmdRequest true "命令参数"
// @Success 200 {object} BurstResponse
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Router /api/cmd [post]
func (h *Handler) Cmd(c *gin.Context) {
	var req CmdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	res, err := h.gw.Execute(c.Request.Context(), req.Args)
	if err != nil {
		h.logger.Warn("command rejected", zap.Strings("args", req.Args), zap.Error(err))
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBurstResponse(res))
}

// Probe 对验证表发起一轮探测
// @Summary 有效性探测
// @Tags 诊断
// @Produce json
// @Router /api/probe [post]
func (h *Handler) Probe(c *gin.Context) {
	n, err := h.gw.ProbeAll(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"probed": n})
}

// Scan 文本扫描报告
// @Summary 扫描报告
// @Tags 诊断
// @Produce plain
// @Router /api/scan [get]
func (h *Handler) Scan(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.gw.ScanDump(&buf); err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// Memo 最近一次发送的命令码与载荷
func (h *Handler) Memo(c *gin.Context) {
	m := h.gw.Memo()
	c.JSON(http.StatusOK, gin.H{
		"cmd":  fmt.Sprintf("%02x", m.Command),
		"data": hex.EncodeToString(m.Data),
	})
}

// ListDevices 设备列表（注册表顺序）
// @Summary 查询设备列表
// @Tags 设备管理
// @Produce json
// @Router /api/devices [get]
func (h *Handler) ListDevices(c *gin.Context) {
	devices := h.gw.Devices()
	if devices == nil {
		devices = []registry.DeviceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "total": len(devices)})
}

// AddDevice 新增设备，仅修改内存中的注册表，需调用 save 持久化
// @Summary 新增设备
// @Tags 设备管理
// @Accept json
// @Produce json
// @Router /api/devices [post]
func (h *Handler) AddDevice(c *gin.Context) {
	var rec registry.DeviceRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if rec.Node.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "node is required"})
		return
	}
	if err := h.gw.AddDevice(rec); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// SaveDevices 回写设备注册表
// @Summary 保存设备注册表
// @Tags 设备管理
// @Router /api/devices/save [post]
func (h *Handler) SaveDevices(c *gin.Context) {
	if err := h.gw.SaveDevices(c.Request.Context()); err != nil {
		h.logger.Error("save devices failed", zap.Error(err))
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(h.gw.Devices())})
}

// ValidityRequest 探测分类结果
type ValidityRequest struct {
	Status *int `json:"status" binding:"required,min=0,max=255"`
}

// RecordValidity 回写某命令码的探测状态，code 支持十进制与 0x 前缀
func (h *Handler) RecordValidity(c *gin.Context) {
	code, err := iohc.ParseCode(c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req ValidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	status := byte(*req.Status)
	h.gw.RecordValidity(code, status)
	c.JSON(http.StatusOK, gin.H{
		"code":   fmt.Sprintf("%02x", code),
		"status": iohc.StatusLabel(status),
	})
}

// RxRequest 接收路径上报的一帧（地址为十六进制，至少3字节）
type RxRequest struct {
	Src    string `json:"src" binding:"required"`
	Dst    string `json:"dst" binding:"required"`
	Code   string `json:"code"`
	Status *int   `json:"status" binding:"omitempty,min=0,max=255"`
}

// Received 接收路径回调。
// 本网关发出的帧直接忽略；发给本网关的帧记录发送方（ack 目标）并可回写探测状态；
// 其他设备之间的帧只报告 fake=false，不改变任何状态。
func (h *Handler) Received(c *gin.Context) {
	var req RxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	src, err1 := hex.DecodeString(req.Src)
	dst, err2 := hex.DecodeString(req.Dst)
	if err1 != nil || err2 != nil || len(src) < iohc.AddressSize || len(dst) < iohc.AddressSize {
		abortWithError(c, fmt.Errorf("%w: src=%q dst=%q", iohc.ErrAddress, req.Src, req.Dst))
		return
	}

	fake := h.gw.IsFake(src, dst)
	if h.gw.IsOwn(src) || !h.gw.IsOwn(dst) {
		c.JSON(http.StatusOK, gin.H{"fake": fake, "accepted": false})
		return
	}

	var code byte
	if req.Status != nil && req.Code != "" {
		var err error
		if code, err = iohc.ParseCode(req.Code); err != nil {
			abortWithError(c, err)
			return
		}
	}

	var sender iohc.Address
	copy(sender[:], src)
	h.gw.NoteSender(sender)
	if req.Status != nil && req.Code != "" {
		h.gw.RecordValidity(code, byte(*req.Status))
	}
	c.JSON(http.StatusOK, gin.H{"fake": fake, "accepted": true, "sender": sender.String()})
}
