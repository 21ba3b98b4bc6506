package pg

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
)

// Migrations 设备表迁移脚本
//
//go:embed migrations/*.sql
var Migrations embed.FS

// DefaultDeviceSet 默认设备集合名
const DefaultDeviceSet = "default"

// DeviceStore PostgreSQL 设备文档存储。每个集合对应一个键值文档，position 保存文档顺序。
type DeviceStore struct {
	Pool *pgxpool.Pool
	Set  string
}

// NewDeviceStore 创建存储
func NewDeviceStore(pool *pgxpool.Pool, set string) *DeviceStore {
	if set == "" {
		set = DefaultDeviceSet
	}
	return &DeviceStore{Pool: pool, Set: set}
}

// Load 集合从未保存过时返回 registry.ErrStoreMissing
func (s *DeviceStore) Load(ctx context.Context) ([]registry.DeviceRecord, error) {
	var exists bool
	if err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM iohc_device_sets WHERE name=$1)`, s.Set).Scan(&exists); err != nil {
		if IsUndefinedTable(err) {
			return nil, fmt.Errorf("%w: iohc_device_sets table", registry.ErrStoreMissing)
		}
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: device set %q", registry.ErrStoreMissing, s.Set)
	}

	rows, err := s.Pool.Query(ctx, `SELECT node, dst, type, description FROM iohc_devices
        WHERE set_name=$1 ORDER BY position`, s.Set)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []registry.DeviceRecord{}
	for rows.Next() {
		var node, dst, typ, desc string
		if err := rows.Scan(&node, &dst, &typ, &desc); err != nil {
			return nil, err
		}
		rec, err := scanRecord(node, dst, typ, desc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Save 在事务中整体替换集合内容
func (s *DeviceStore) Save(ctx context.Context, records []registry.DeviceRecord) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO iohc_device_sets(name, saved_at) VALUES($1, NOW())
            ON CONFLICT (name) DO UPDATE SET saved_at=EXCLUDED.saved_at`, s.Set); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM iohc_devices WHERE set_name=$1`, s.Set); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"iohc_devices"},
			[]string{"set_name", "node", "dst", "type", "description", "position"},
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				r := records[i]
				return []any{s.Set, r.Node.String(), r.Destination.String(), r.Type, r.Description, i}, nil
			}),
		)
		return err
	})
}

// Delete 删除整个集合（之后 Load 返回 ErrStoreMissing）
func (s *DeviceStore) Delete(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM iohc_device_sets WHERE name=$1`, s.Set)
	return err
}

func scanRecord(node, dst, typ, desc string) (registry.DeviceRecord, error) {
	n, err := iohc.ParseAddress(strings.TrimSpace(node))
	if err != nil {
		return registry.DeviceRecord{}, err
	}
	d, err := iohc.ParseAddress(strings.TrimSpace(dst))
	if err != nil {
		return registry.DeviceRecord{}, fmt.Errorf("device %s dst: %w", node, err)
	}
	return registry.DeviceRecord{Node: n, Destination: d, Type: typ, Description: desc}, nil
}

// IsUndefinedTable 表不存在（未执行迁移）
func IsUndefinedTable(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "42P01"
}
