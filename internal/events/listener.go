package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	log "github.com/sirupsen/logrus"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

// Handler is invoked for every tenant event read from the topic
type Handler func(ctx context.Context, event Event)

type consumer interface {
	Subscribe(topic string, rebalanceCb kafka.RebalanceCb) error
	Poll(timeoutMs int) kafka.Event
	Close() error
}

// Listener consumes the events topic and passes each event to a Handler
type Listener struct {
	consumer consumer
	topic    string
	handler  Handler
}

// NewListener creates a consumer in groupID. Each replica should use its
// own group so that every replica sees every event.
func NewListener(brokers []string, groupID, topic string, handler Handler) (*Listener, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(brokers, ","),
		"group.id":          groupID,
		"auto.offset.reset": "latest",
	})
	if err != nil {
		if ke, ok := err.(kafka.Error); ok {
			switch ec := ke.Code(); ec {
			case kafka.ErrInvalidArg:
				return nil, fmt.Errorf("Invalid args to configure kafka code %d %w", ec, err)
			default:
				return nil, fmt.Errorf("Error creating Kafka consumer code %d %w", ec, err)
			}
		}
		return nil, fmt.Errorf("Error creating Kafka consumer %w", err)
	}
	return &Listener{consumer: c, topic: topic, handler: handler}, nil
}

// Run polls until shutdown is closed
func (l *Listener) Run(shutdown chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	defer log.Info("Kafka Listener exiting")

	if err := l.consumer.Subscribe(l.topic, nil); err != nil {
		log.Errorf("Error subscribing to topic %s %v", l.topic, err)
		l.consumer.Close()
		return
	}

	ctx := context.Background()
	for {
		select {
		case <-shutdown:
			log.Info("Closing Kafka Channel")
			l.consumer.Close()
			return
		default:
		}

		ev := l.consumer.Poll(1000)
		if ev == nil {
			continue
		}
		switch e := ev.(type) {
		case *kafka.Message:
			var event Event
			if err := json.Unmarshal(e.Value, &event); err != nil {
				log.Errorf("Error parsing message %v", err)
				continue
			}
			nctx := logger.CtxWithLoggerID(ctx, event.RequestID)
			logger.GetLogger(nctx).Infof("Received event %s for tenant %d", event.Type, event.TenantID)
			l.handler(nctx, event)
		case kafka.Error:
			log.Errorf("Kafka error %v", e)
		default:
			log.Debugf("Ignoring kafka event %v", e)
		}
	}
}
