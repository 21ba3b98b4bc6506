package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"github.com/taoyao-code/iohc-gateway/internal/health"
	"github.com/taoyao-code/iohc-gateway/internal/outbound"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
)

func TestNewRadio_Log(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := NewRadio(ctx, cfgpkg.TransportConfig{Kind: cfgpkg.TransportLog}, nil, nil, nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, false, r.Stats(ctx)["dialed"])
	assert.Nil(t, r.Queue())

	tr, err := r.Dial(ctx)
	require.NoError(t, err)
	_, ok := tr.(*outbound.Pacer)
	assert.True(t, ok)
	assert.Equal(t, int64(0), r.Stats(ctx)["written"])

	res := r.Checker.Check(ctx)
	assert.Equal(t, health.StatusHealthy, res.Status)
	assert.Equal(t, "log", res.Details["kind"])
}

func TestNewRadio_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRadio(ctx, cfgpkg.TransportConfig{Kind: "carrier-pigeon"}, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewRadio(ctx, cfgpkg.TransportConfig{Kind: cfgpkg.TransportRedis}, nil, nil, nil)
	assert.Error(t, err)
}

func TestNewRadio_SerialDialFailureIsNoTransport(t *testing.T) {
	ctx := context.Background()
	r, err := NewRadio(ctx, cfgpkg.TransportConfig{
		Kind:   cfgpkg.TransportSerial,
		Serial: cfgpkg.SerialConfig{Device: "/nonexistent/tty-iohc", Baud: 115200},
	}, nil, nil, nil)
	require.NoError(t, err)
	defer r.Close()

	s := outbound.NewScheduler(r.Dial, nil)
	f, err := iohc.Forge(nil)
	require.NoError(t, err)
	s.Add(f)
	_, err = s.Submit(ctx, "powerOn")
	assert.True(t, errors.Is(err, outbound.ErrNoTransport))
}

func TestRadio_CloseRunsInReverse(t *testing.T) {
	r := &Radio{}
	var order []int
	r.onClose(func() { order = append(order, 1) })
	r.onClose(func() { order = append(order, 2) })
	r.Close()
	r.Close()
	assert.Equal(t, []int{2, 1}, order)
}
