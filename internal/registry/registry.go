// Package registry 已知 2W 设备表：按节点地址建索引，从外部键值文档加载并回写。
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"go.uber.org/zap"
)

var (
	// ErrStoreMissing 持久化存储不存在（非致命，注册表为空）
	ErrStoreMissing = errors.New("registry: device store not found")
	// ErrDuplicateNode 节点地址重复
	ErrDuplicateNode = errors.New("registry: duplicate node address")
)

// DeviceRecord 一个已知设备
type DeviceRecord struct {
	Node        iohc.Address `json:"node"`
	Destination iohc.Address `json:"dst"` // 私有写命令的目标地址
	Type        string       `json:"type"`
	Description string       `json:"description"`
}

// Store 设备文档存储。Load 在存储不存在时返回 ErrStoreMissing。
// 记录按文档顺序返回，Save 按给定顺序写入。
type Store interface {
	Load(ctx context.Context) ([]DeviceRecord, error)
	Save(ctx context.Context, records []DeviceRecord) error
}

// Registry 设备注册表。不加锁，由控制器的调用方串行化访问。
type Registry struct {
	store   Store
	records []DeviceRecord
	logger  *zap.Logger
}

// New 创建空注册表
func New(store Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: store, logger: logger}
}

// Load 从存储加载，替换内存中的记录。存储不存在时返回 false 且不报错。
func (r *Registry) Load(ctx context.Context) (bool, error) {
	recs, err := r.store.Load(ctx)
	if errors.Is(err, ErrStoreMissing) {
		r.records = nil
		r.logger.Info("2W device store not available, registry starts empty")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load devices: %w", err)
	}

	seen := make(map[iohc.Address]bool, len(recs))
	for _, rec := range recs {
		if seen[rec.Node] {
			return false, fmt.Errorf("load devices: %w: %s", ErrDuplicateNode, rec.Node)
		}
		seen[rec.Node] = true
	}
	r.records = recs
	r.logger.Info("2W devices loaded", zap.Int("count", len(recs)))
	return true, nil
}

// Save 按当前顺序写回存储
func (r *Registry) Save(ctx context.Context) error {
	if err := r.store.Save(ctx, r.Records()); err != nil {
		return fmt.Errorf("save devices: %w", err)
	}
	r.logger.Info("2W devices saved", zap.Int("count", len(r.records)))
	return nil
}

// Add 追加设备（配对时创建），节点地址重复返回 ErrDuplicateNode
func (r *Registry) Add(rec DeviceRecord) error {
	if _, ok := r.Find(rec.Node); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, rec.Node)
	}
	r.records = append(r.records, rec)
	return nil
}

// At 按索引取记录，越界返回 iohc.ErrIndex
func (r *Registry) At(i int) (DeviceRecord, error) {
	if i < 0 || i >= len(r.records) {
		return DeviceRecord{}, fmt.Errorf("%w: %d (registry has %d)", iohc.ErrIndex, i, len(r.records))
	}
	return r.records[i], nil
}

// Destination 第 i 个设备的目标地址
func (r *Registry) Destination(i int) (iohc.Address, error) {
	rec, err := r.At(i)
	if err != nil {
		return iohc.Address{}, err
	}
	return rec.Destination, nil
}

// Len 设备数
func (r *Registry) Len() int { return len(r.records) }

// Find 按节点地址查找
func (r *Registry) Find(node iohc.Address) (DeviceRecord, bool) {
	for _, rec := range r.records {
		if rec.Node == node {
			return rec, true
		}
	}
	return DeviceRecord{}, false
}

// Records 记录副本，保持顺序
func (r *Registry) Records() []DeviceRecord {
	out := make([]DeviceRecord, len(r.records))
	copy(out, r.records)
	return out
}
