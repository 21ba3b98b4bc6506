package registry

import (
	"context"
	"sync"
)

// MemoryStore 内存存储，nil 记录表示存储不存在
type MemoryStore struct {
	mu      sync.Mutex
	records []DeviceRecord
	exists  bool
	saves   int
}

// NewMemoryStore 以给定记录初始化；不传参数时存储不存在
func NewMemoryStore(records ...DeviceRecord) *MemoryStore {
	s := &MemoryStore{}
	if len(records) > 0 {
		s.records = append([]DeviceRecord(nil), records...)
		s.exists = true
	}
	return s
}

// Load 实现 Store
func (s *MemoryStore) Load(context.Context) ([]DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return nil, ErrStoreMissing
	}
	return append([]DeviceRecord(nil), s.records...), nil
}

// Save 实现 Store
func (s *MemoryStore) Save(_ context.Context, records []DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]DeviceRecord(nil), records...)
	s.exists = true
	s.saves++
	return nil
}

// Saves 保存次数
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
