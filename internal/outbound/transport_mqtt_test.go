package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
)

type fakeToken struct {
	done    chan struct{}
	err     error
	timeout bool
}

func newToken(err error, timeout bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err, timeout: timeout}
	if !timeout {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	msgs  []published
	token *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return p.token
}

func TestMQTTTransport_PublishesBurst(t *testing.T) {
	pub := &fakePublisher{token: newToken(nil, false)}
	tr := NewMQTTTransport(pub, cfgpkg.MQTTConfig{Topic: "iohc/tx", QoS: 1, Retained: true}, nil)

	f := mustForge(t, 0x20, 0x01, 0x2c)
	f.SetTarget(iohc.MustParseAddress("315824"))
	require.NoError(t, tr.Send(context.Background(), Burst{ID: "b1", Button: "powerOn", Frames: []iohc.Frame{f}}))

	require.Len(t, pub.msgs, 1)
	m := pub.msgs[0]
	assert.Equal(t, "iohc/tx", m.topic)
	assert.Equal(t, byte(1), m.qos)
	assert.True(t, m.retained)

	var msg BurstMessage
	require.NoError(t, json.Unmarshal(m.payload, &msg))
	assert.Equal(t, "b1", msg.ID)
	assert.Equal(t, "powerOn", msg.Button)
	require.Len(t, msg.Frames, 1)
	assert.Equal(t, f.Hex(), msg.Frames[0].Data)
}

func TestMQTTTransport_Errors(t *testing.T) {
	pub := &fakePublisher{token: newToken(nil, true)}
	tr := NewMQTTTransport(pub, cfgpkg.MQTTConfig{Topic: "iohc/tx"}, nil)
	err := tr.Send(context.Background(), Burst{ID: "b1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	pub.token = newToken(errors.New("not authorized"), false)
	err = tr.Send(context.Background(), Burst{ID: "b2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}
