package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "iohc-gateway", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, RegistryBackendFile, cfg.Registry.Backend)
	assert.Equal(t, SaveModeAppend, cfg.Registry.File.SaveMode)
	assert.Equal(t, TransportLog, cfg.Transport.Kind)
	assert.Equal(t, time.Duration(0), cfg.Probe.Interval)
	assert.Equal(t, 115200, cfg.Transport.Serial.Baud)
	assert.Equal(t, byte(1), cfg.Transport.MQTT.QoS)

	addrs, err := cfg.Radio.Addresses()
	require.NoError(t, err)
	assert.Equal(t, "ba11ad", addrs.Gateway.String())
	assert.Equal(t, iohc.BroadcastAddress, addrs.Broadcast)
	assert.Equal(t, iohc.RemoteBroadcastAddress, addrs.BroadcastRemote)
}

func TestLoad_FileAndEnv(t *testing.T) {
	p := writeConfig(t, `
radio:
  gateway: "abcdef"
  slaveTo: "010203"
registry:
  backend: file
  file:
    path: /tmp/devices.json
    saveMode: truncate
probe:
  interval: 30s
`)
	t.Setenv("IOHC_RADIO_MASTERTO", "112233")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", cfg.Radio.Gateway)
	assert.Equal(t, "112233", cfg.Radio.MasterTo)
	assert.Equal(t, SaveModeTruncate, cfg.Registry.File.SaveMode)
	assert.Equal(t, 30*time.Second, cfg.Probe.Interval)

	addrs, err := cfg.Radio.Addresses()
	require.NoError(t, err)
	ad := addrs.Addressing(addrs.MasterFrom)
	assert.Equal(t, "112233", ad.Master.String())
	assert.Equal(t, "010203", ad.Slave.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"地址非法", "radio:\n  gateway: xyz\n"},
		{"未知后端", "registry:\n  backend: mongo\n"},
		{"未知写入模式", "registry:\n  file:\n    saveMode: rewrite\n"},
		{"未知传输", "transport:\n  kind: lora\n"},
		{"redis 未启用", "transport:\n  kind: redis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestRadioAddresses_ErrAddress(t *testing.T) {
	rc := RadioConfig{Gateway: "ba11ad", MasterTo: "31582"}
	_, err := rc.Addresses()
	require.Error(t, err)
	assert.True(t, errors.Is(err, iohc.ErrAddress))
	assert.Contains(t, err.Error(), "radio.masterTo")
}
