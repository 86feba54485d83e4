package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/metrics"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

// EventTypeHeader carries the event type so consumers can filter without
// decoding the payload
const EventTypeHeader = "event_type"

// DefaultDeliveryTimeout bounds the wait for a delivery report
const DefaultDeliveryTimeout = 5 * time.Second

type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Close()
}

// KafkaPublisher writes events to a Kafka topic and waits for the delivery
// report of each message
type KafkaPublisher struct {
	producer producer
	topic    string
	timeout  time.Duration
}

// NewKafkaPublisher connects a producer to brokers. A message that is not
// delivered within timeout is reported as failed.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) (*KafkaPublisher, error) {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(brokers, ","),
		"message.timeout.ms": int(timeout / time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating Kafka producer: %w", err)
	}
	return &KafkaPublisher{producer: p, topic: topic, timeout: timeout}, nil
}

// Publish implements Publisher
func (kp *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	glog := logger.GetLogger(ctx)
	value, err := json.Marshal(event)
	if err != nil {
		glog.Errorf("Error marshaling event %v", err)
		return err
	}

	timeout := kp.timeout
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delivery := make(chan kafka.Event, 1)
	err = kp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &kp.topic, Partition: kafka.PartitionAny},
		Key:            []byte(fmt.Sprintf("%d", event.TenantID)),
		Value:          value,
		Headers:        []kafka.Header{{Key: EventTypeHeader, Value: []byte(event.Type)}},
	}, delivery)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		glog.Errorf("Error producing event %s %v", event.Type, err)
		return err
	}

	select {
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if ok && m.TopicPartition.Error != nil {
			err = m.TopicPartition.Error
		} else if !ok {
			err = fmt.Errorf("unexpected delivery report %v", ev)
		}
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		glog.Errorf("Delivery of event %s failed %v", event.Type, err)
		return err
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type), "ok").Inc()
	glog.Infof("Published event %s for tenant %d", event.Type, event.TenantID)
	return nil
}

// Close shuts down the producer
func (kp *KafkaPublisher) Close() {
	kp.producer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
