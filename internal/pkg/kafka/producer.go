package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, key string, message interface{}) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns a kafka backed producer, or a log-only producer when no
// broker answers so the uploader keeps working without kafka.
func NewProducer(brokers []string, topic string) Producer {
	if len(brokers) == 0 {
		return NewLogProducer(topic)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	log := logrus.WithFields(logrus.Fields{"brokers": strings.Join(brokers, ","), "topic": topic})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		log.WithError(err).Warn("Kafka connection failed, using log producer instead")
		writer.Close()
		return NewLogProducer(topic)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		log.WithError(err).Debug("Could not create topic (might already exist)")
	}

	log.Info("Connected to Kafka")
	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) Publish(ctx context.Context, key string, message interface{}) error {
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithError(err).WithField("topic", p.topic).Error("Failed to write message to Kafka")
		return err
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// logProducer only logs what would have been published.
type logProducer struct {
	topic string
}

func NewLogProducer(topic string) Producer {
	return &logProducer{topic: topic}
}

func (p *logProducer) Publish(_ context.Context, key string, message interface{}) error {
	logrus.WithFields(logrus.Fields{"topic": p.topic, "key": key, "message": message}).Info("publish (no broker)")
	return nil
}

func (p *logProducer) Close() error {
	return nil
}
