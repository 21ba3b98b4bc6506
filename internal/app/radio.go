package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"github.com/taoyao-code/iohc-gateway/internal/health"
	"github.com/taoyao-code/iohc-gateway/internal/metrics"
	"github.com/taoyao-code/iohc-gateway/internal/outbound"
	redisstorage "github.com/taoyao-code/iohc-gateway/internal/storage/redis"
	"go.uber.org/zap"
)

// Radio 射频传输装配结果：延迟建立的拨号函数、健康检查器与关闭钩子
type Radio struct {
	Kind    string
	Dial    outbound.Dialer
	Checker *health.TransportChecker

	mu      sync.Mutex
	pacer   *outbound.Pacer
	worker  *outbound.RedisWorker
	queue   *redisstorage.BurstQueue
	mqtt    mqtt.Client
	closers []func()
}

// NewRadio 按 transport.kind 装配射频传输。
// 串口与 MQTT 在首次发送时才建立连接，Redis 队列在此处即可用。
func NewRadio(ctx context.Context, cfg cfgpkg.TransportConfig, rc *redisstorage.Client, logger *zap.Logger, m *metrics.AppMetrics) (*Radio, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Radio{Kind: cfg.Kind}

	switch cfg.Kind {
	case cfgpkg.TransportLog:
		w := outbound.NewLogWriter(logger)
		r.Dial = func(context.Context) (outbound.Transport, error) {
			return r.startPacer(ctx, w, logger, m), nil
		}

	case cfgpkg.TransportSerial:
		sc := cfg.Serial
		r.Dial = func(context.Context) (outbound.Transport, error) {
			sw, err := outbound.OpenSerial(sc.Device, sc.Baud, sc.ReadTimeout, logger)
			if err != nil {
				return nil, err
			}
			r.onClose(func() { _ = sw.Close() })
			return r.startPacer(ctx, sw, logger, m), nil
		}

	case cfgpkg.TransportRedis:
		if rc == nil {
			return nil, errors.New("redis transport requires redis client")
		}
		r.queue = redisstorage.NewBurstQueue(rc, cfg.Redis.Key)
		r.Dial = outbound.Static(outbound.NewRedisTransport(r.queue, logger))
		if cfg.Redis.Consume {
			if err := r.startWorker(ctx, cfg, logger, m); err != nil {
				return nil, err
			}
		}

	case cfgpkg.TransportMQTT:
		mc := cfg.MQTT
		r.Dial = func(context.Context) (outbound.Transport, error) {
			client, err := outbound.NewMQTTClient(mc)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			r.mqtt = client
			r.mu.Unlock()
			r.onClose(func() { client.Disconnect(250) })
			logger.Info("mqtt radio bridge connected", zap.String("broker", mc.Broker), zap.String("topic", mc.Topic))
			return outbound.NewMQTTTransport(client, mc, logger), nil
		}

	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}

	var connected func() bool
	if cfg.Kind == cfgpkg.TransportMQTT {
		connected = r.mqttConnected
	}
	r.Checker = health.NewTransportChecker(cfg.Kind, r.Stats, connected)
	return r, nil
}

func (r *Radio) startPacer(ctx context.Context, w outbound.FrameWriter, logger *zap.Logger, m *metrics.AppMetrics) *outbound.Pacer {
	p := outbound.NewPacer(w, logger, m)
	go p.Run(ctx)
	r.mu.Lock()
	r.pacer = p
	r.mu.Unlock()
	return p
}

// startWorker 本进程同时消费 Redis 队列：有串口配置时写串口，否则只记录日志
func (r *Radio) startWorker(ctx context.Context, cfg cfgpkg.TransportConfig, logger *zap.Logger, m *metrics.AppMetrics) error {
	var w outbound.FrameWriter = outbound.NewLogWriter(logger)
	if cfg.Serial.Device != "" {
		sw, err := outbound.OpenSerial(cfg.Serial.Device, cfg.Serial.Baud, cfg.Serial.ReadTimeout, logger)
		if err != nil {
			return fmt.Errorf("redis consumer serial: %w", err)
		}
		r.onClose(func() { _ = sw.Close() })
		w = sw
	}
	r.worker = outbound.NewRedisWorker(r.queue, w, 0, logger, m)
	go r.worker.Start(ctx)
	r.onClose(r.worker.Stop)
	return nil
}

// Queue Redis 传输的帧队列，其他传输为 nil
func (r *Radio) Queue() *redisstorage.BurstQueue { return r.queue }

// Stats 当前传输统计
func (r *Radio) Stats(ctx context.Context) map[string]interface{} {
	r.mu.Lock()
	p, w, q := r.pacer, r.worker, r.queue
	r.mu.Unlock()

	switch {
	case p != nil:
		return p.Stats()
	case w != nil:
		return w.Stats(ctx)
	case q != nil:
		s, err := q.Stats(ctx)
		if err != nil {
			return map[string]interface{}{"error": err.Error()}
		}
		return s
	}
	return map[string]interface{}{"dialed": false}
}

func (r *Radio) mqttConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	// 尚未拨号不算断开
	return r.mqtt == nil || r.mqtt.IsConnectionOpen()
}

func (r *Radio) onClose(fn func()) {
	r.mu.Lock()
	r.closers = append(r.closers, fn)
	r.mu.Unlock()
}

// Close 按注册的逆序释放资源
func (r *Radio) Close() {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
