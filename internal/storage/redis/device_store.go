package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
)

// Redis Key 布局（prefix 默认 iohc:devices）
//
//	<prefix>:hash     Hash  节点地址 → {"dst","type","description"}
//	<prefix>:order    List  节点地址，保持文档顺序
//	<prefix>:saved_at String 最近保存时间；不存在表示存储不存在
const (
	deviceHashSuffix  = ":hash"
	deviceOrderSuffix = ":order"
	deviceSavedSuffix = ":saved_at"
)

type deviceValue struct {
	Dst         string `json:"dst"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// DeviceStore Redis 设备文档存储
type DeviceStore struct {
	client *Client
	prefix string
}

// NewDeviceStore 创建存储
func NewDeviceStore(client *Client, prefix string) *DeviceStore {
	if prefix == "" {
		prefix = "iohc:devices"
	}
	return &DeviceStore{client: client, prefix: prefix}
}

// Load 实现 registry.Store
func (s *DeviceStore) Load(ctx context.Context) ([]registry.DeviceRecord, error) {
	var (
		exists *redis.IntCmd
		order  *redis.StringSliceCmd
		values *redis.MapStringStringCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, s.prefix+deviceSavedSuffix)
		order = pipe.LRange(ctx, s.prefix+deviceOrderSuffix, 0, -1)
		values = pipe.HGetAll(ctx, s.prefix+deviceHashSuffix)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if exists.Val() == 0 {
		return nil, fmt.Errorf("%w: redis key %s", registry.ErrStoreMissing, s.prefix)
	}

	m := values.Val()
	out := make([]registry.DeviceRecord, 0, len(order.Val()))
	for _, key := range order.Val() {
		raw, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("%w: device %s listed but missing", iohc.ErrParse, key)
		}
		var v deviceValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%w: device %s: %v", iohc.ErrParse, key, err)
		}
		node, err := iohc.ParseAddress(key)
		if err != nil {
			return nil, err
		}
		dst, err := iohc.ParseAddress(v.Dst)
		if err != nil {
			return nil, fmt.Errorf("device %s dst: %w", key, err)
		}
		out = append(out, registry.DeviceRecord{Node: node, Destination: dst, Type: v.Type, Description: v.Description})
	}
	return out, nil
}

// Save 在 MULTI/EXEC 中整体替换
func (s *DeviceStore) Save(ctx context.Context, records []registry.DeviceRecord) error {
	fields := make([]interface{}, 0, len(records)*2)
	order := make([]interface{}, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(deviceValue{Dst: r.Destination.String(), Type: r.Type, Description: r.Description})
		if err != nil {
			return err
		}
		fields = append(fields, r.Node.String(), data)
		order = append(order, r.Node.String())
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.prefix+deviceHashSuffix, s.prefix+deviceOrderSuffix)
		if len(records) > 0 {
			pipe.HSet(ctx, s.prefix+deviceHashSuffix, fields...)
			pipe.RPush(ctx, s.prefix+deviceOrderSuffix, order...)
		}
		pipe.Set(ctx, s.prefix+deviceSavedSuffix, time.Now().UTC().Format(time.RFC3339), 0)
		return nil
	})
	return err
}

// Delete 删除存储
func (s *DeviceStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, s.prefix+deviceHashSuffix, s.prefix+deviceOrderSuffix, s.prefix+deviceSavedSuffix).Err()
}
