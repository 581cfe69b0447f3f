package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	app "thermo-monitor/internal/application"
	"thermo-monitor/internal/domain/entity"
)

const (
	subscribeQoS    = 1
	subscribeWait   = 5 * time.Second
	disconnectQuiet = 250
	defaultDevice   = "esp32"
)

// Recorder принимает показания датчика
type Recorder interface {
	Record(ctx context.Context, in app.MeasurementInput) (*entity.Measurement, error)
}

// Payload сообщение датчика
type Payload struct {
	DeviceID     string    `json:"device_id"`
	Temperatures []float64 `json:"temperatures"`
}

// MQTTListener подписывается на топик брокера и сохраняет каждое показание
type MQTTListener struct {
	broker   string
	topic    string
	clientID string
	recorder Recorder
	logger   *zap.Logger
}

// NewMQTTListener создаёт слушателя
func NewMQTTListener(broker, topic string, recorder Recorder, logger *zap.Logger) *MQTTListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTListener{
		broker:   broker,
		topic:    topic,
		clientID: "thermo-monitor-" + uuid.NewString()[:8],
		recorder: recorder,
		logger:   logger.Named("mqtt"),
	}
}

// Run подключается к брокеру и обрабатывает сообщения до отмены контекста
func (l *MQTTListener) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(l.broker).
		SetClientID(l.clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			l.logger.Warn("connection lost", zap.Error(err))
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			l.subscribe(ctx, c)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to %s: %w", l.broker, token.Error())
	}
	l.logger.Info("connected", zap.String("broker", l.broker), zap.String("topic", l.topic))

	<-ctx.Done()

	client.Unsubscribe(l.topic).WaitTimeout(subscribeWait)
	client.Disconnect(disconnectQuiet)
	l.logger.Info("disconnected")
	return nil
}

func (l *MQTTListener) subscribe(ctx context.Context, c mqtt.Client) {
	token := c.Subscribe(l.topic, subscribeQoS, func(_ mqtt.Client, msg mqtt.Message) {
		if err := l.Handle(ctx, msg.Payload()); err != nil {
			l.logger.Warn("reading dropped", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	})
	if !token.WaitTimeout(subscribeWait) {
		l.logger.Error("subscribe timed out", zap.String("topic", l.topic))
		return
	}
	if err := token.Error(); err != nil {
		l.logger.Error("subscribe failed", zap.String("topic", l.topic), zap.Error(err))
	}
}

// Handle разбирает сообщение датчика и сохраняет измерение
func (l *MQTTListener) Handle(ctx context.Context, data []byte) error {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if p.DeviceID == "" {
		p.DeviceID = defaultDevice
	}

	m, err := l.recorder.Record(ctx, app.MeasurementInput{
		DeviceID:     p.DeviceID,
		Source:       entity.SourceSensor,
		Temperatures: p.Temperatures,
	})
	if err != nil {
		return fmt.Errorf("record reading from %s: %w", p.DeviceID, err)
	}

	l.logger.Debug("reading stored",
		zap.String("device", p.DeviceID),
		zap.Int64("measurement_id", m.ID))
	return nil
}
