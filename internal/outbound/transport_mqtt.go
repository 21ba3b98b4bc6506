package outbound

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"go.uber.org/zap"
)

// publisher mqtt.Client 中传输用到的部分
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTTransport 把整个突发作为一条消息发布给 MQTT 射频桥。
// 默认 retained：桥重连后拿到的总是最新突发，旧突发被覆盖。
type MQTTTransport struct {
	client   publisher
	topic    string
	qos      byte
	retained bool
	timeout  time.Duration
	logger   *zap.Logger
}

// NewMQTTClient 根据配置创建并连接 MQTT 客户端
func NewMQTTClient(cfg cfgpkg.MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		// 设置自动重连，心跳，超时等
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if ok := token.WaitTimeout(mqttTimeout(cfg.Timeout)); !ok {
		return nil, fmt.Errorf("mqtt connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return client, nil
}

// NewMQTTTransport 创建 MQTT 传输
func NewMQTTTransport(client publisher, cfg cfgpkg.MQTTConfig, logger *zap.Logger) *MQTTTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTTransport{
		client:   client,
		topic:    cfg.Topic,
		qos:      cfg.QoS,
		retained: cfg.Retained,
		timeout:  mqttTimeout(cfg.Timeout),
		logger:   logger,
	}
}

// Send 实现 Transport：等待 broker 确认发布，不等待射频发送
func (t *MQTTTransport) Send(_ context.Context, b Burst) error {
	body, err := json.Marshal(NewBurstMessage(b))
	if err != nil {
		return fmt.Errorf("marshal burst: %w", err)
	}
	token := t.client.Publish(t.topic, t.qos, t.retained, body)
	if !token.WaitTimeout(t.timeout) {
		return fmt.Errorf("mqtt publish %s: timeout", t.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", t.topic, err)
	}
	t.logger.Debug("burst published",
		zap.String("burst_id", b.ID),
		zap.String("topic", t.topic),
		zap.Int("frames", len(b.Frames)))
	return nil
}

func mqttTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
