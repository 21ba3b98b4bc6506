package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stats(written, failed int64) TransportStats {
	return func(context.Context) map[string]interface{} {
		return map[string]interface{}{"written": written, "failed": failed}
	}
}

func TestTransportChecker(t *testing.T) {
	tests := []struct {
		name      string
		stats     TransportStats
		connected func() bool
		want      Status
	}{
		{"无统计", nil, nil, StatusHealthy},
		{"写入正常", stats(10, 1), nil, StatusHealthy},
		{"写入大量失败", stats(1, 5), nil, StatusDegraded},
		{"连接断开", stats(10, 0), func() bool { return false }, StatusUnhealthy},
		{"连接正常", stats(0, 0), func() bool { return true }, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTransportChecker("serial", tt.stats, tt.connected)
			res := c.Check(context.Background())
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, "serial", res.Details["kind"])
			assert.Equal(t, "transport", c.Name())
		})
	}
}

func TestReadiness(t *testing.T) {
	r := New()
	assert.False(t, r.Ready())
	r.SetRegistryReady(true)
	assert.False(t, r.Ready())
	r.SetTransportReady(true)
	assert.True(t, r.Ready())
}
