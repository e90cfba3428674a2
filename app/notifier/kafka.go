package notifier

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/IBM/sarama"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

// KafkaNotifier publishes terminal payment states to a topic keyed by store,
// so one store's events stay ordered within a partition.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	return sarama.NewSyncProducer(brokers, cfg)
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: strings.TrimSpace(topic)}
}

func (n *KafkaNotifier) Notify(_ context.Context, payment *entity.Payment) error {
	if n.topic == "" {
		return ErrNoDestination
	}

	body, err := encodePayment(payment)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(payment.StoreID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("payment_id"), Value: []byte(strconv.FormatUint(payment.ID, 10))},
			{Key: []byte("status"), Value: []byte(types.PaymentStatus(payment.Status).String())},
		},
	}

	_, _, err = n.producer.SendMessage(msg)
	return err
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
