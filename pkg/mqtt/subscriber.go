package mqtt

import (
	"context"
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
)

// ChangeNotice is the optional payload of a configuration change message.
type ChangeNotice struct {
	DeviceID string `json:"device_id"`
}

// ChangeSubscriber refreshes the monitor whenever another system announces a
// configuration change. Notices that arrive during a refresh collapse into one more refresh.
type ChangeSubscriber struct {
	client  mqtt.Client
	topic   string
	refresh func(context.Context) error
	pending chan struct{}
}

func NewChangeSubscriber(client mqtt.Client, prefix string, refresh func(context.Context) error) *ChangeSubscriber {
	return &ChangeSubscriber{
		client:  client,
		topic:   Topic(prefix, "config", "changed"),
		refresh: refresh,
		pending: make(chan struct{}, 1),
	}
}

func (s *ChangeSubscriber) Subscribe() error {
	token := s.client.Subscribe(s.topic, 1, s.handle)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	common.GetCategoryLogger(common.LoggerCategoryMqtt).Info("Subscribed to configuration changes", zap.String("topic", s.topic))
	return nil
}

func (s *ChangeSubscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	var notice ChangeNotice
	if len(msg.Payload()) > 0 {
		// an unreadable payload still triggers the refresh
		_ = json.Unmarshal(msg.Payload(), &notice)
	}
	common.GetCategoryLogger(common.LoggerCategoryMqtt).
		Debug("Configuration change announced", zap.String("topic", msg.Topic()), zap.String("device_id", notice.DeviceID))

	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// Run performs the refreshes until ctx is done.
func (s *ChangeSubscriber) Run(ctx context.Context) {
	logger := common.GetCategoryLogger(common.LoggerCategoryMqtt)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
			if err := s.refresh(ctx); err != nil {
				logger.Error("Refresh after change notice failed", zap.Error(err))
			}
		}
	}
}
