package mqtt

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

const (
	DefaultQueueSize      = 256
	defaultPublishTimeout = 5 * time.Second
)

type ReadingEvent struct {
	DeviceID       string              `json:"device_id"`
	Timestamp      time.Time           `json:"timestamp"`
	Temperature    decimal.NullDecimal `json:"temperature"`
	Humidity       decimal.NullDecimal `json:"humidity"`
	Status         models.Status       `json:"status"`
	ProfileID      string              `json:"profile_id,omitempty"`
	TransmissionOK bool                `json:"transmission_ok"`
	Error          string              `json:"error,omitempty"`
}

type ActionEvent struct {
	ActionID       string              `json:"action_id"`
	DeviceID       string              `json:"device_id"`
	Type           models.ActionType   `json:"type"`
	Status         models.ActionStatus `json:"status"`
	Description    string              `json:"description"`
	CreatedAt      time.Time           `json:"created_at"`
	CreatedBy      string              `json:"created_by"`
	ExcursionSince *time.Time          `json:"excursion_since,omitempty"`
}

type PublisherConfig struct {
	TopicPrefix string
	// events beyond this many unsent ones are dropped
	QueueSize int
}

type outbound struct {
	topic   string
	payload []byte
}

// Publisher queues engine events and sends them from its own goroutine, so a slow
// broker never holds up a poll.
type Publisher struct {
	client  mqtt.Client
	prefix  string
	queue   chan outbound
	dropped atomic.Int64
	timeout time.Duration
}

func NewPublisher(client mqtt.Client, config PublisherConfig) *Publisher {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	return &Publisher{
		client:  client,
		prefix:  config.TopicPrefix,
		queue:   make(chan outbound, config.QueueSize),
		timeout: defaultPublishTimeout,
	}
}

func (p *Publisher) PublishReading(reading *models.Reading) {
	p.enqueue(Topic(p.prefix, "devices", reading.DeviceID, "readings"), ReadingEvent{
		DeviceID:       reading.DeviceID,
		Timestamp:      reading.Timestamp,
		Temperature:    reading.Temperature,
		Humidity:       reading.Humidity,
		Status:         reading.Status,
		ProfileID:      reading.ProfileID,
		TransmissionOK: reading.TransmissionOK,
		Error:          reading.ErrorMessage,
	})
}

func (p *Publisher) PublishAction(action *models.CorrectiveAction) {
	p.enqueue(Topic(p.prefix, "devices", action.DeviceID, "actions"), ActionEvent{
		ActionID:       action.ActionID,
		DeviceID:       action.DeviceID,
		Type:           action.Type,
		Status:         action.Status,
		Description:    action.Description,
		CreatedAt:      action.CreatedAt,
		CreatedBy:      action.CreatedBy,
		ExcursionSince: action.ExcursionSince,
	})
}

func (p *Publisher) enqueue(topic string, event any) {
	logger := common.GetCategoryLogger(common.LoggerCategoryMqtt, zap.String("topic", topic))

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", zap.Error(err))
		return
	}
	select {
	case p.queue <- outbound{topic: topic, payload: payload}:
	default:
		p.dropped.Add(1)
		logger.Warn("Publish queue full, event dropped")
	}
}

// Dropped counts events lost to a full queue.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Start sends queued events until ctx is done.
func (p *Publisher) Start(ctx context.Context) {
	logger := common.GetCategoryLogger(common.LoggerCategoryMqtt)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.queue:
			token := p.client.Publish(msg.topic, 1, false, msg.payload)
			if !token.WaitTimeout(p.timeout) {
				logger.Warn("Publish timed out", zap.String("topic", msg.topic))
				continue
			}
			if err := token.Error(); err != nil {
				logger.Error("Failed to publish event", zap.String("topic", msg.topic), zap.Error(err))
			}
		}
	}
}
