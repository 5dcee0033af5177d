// internal/pkg/mq/kafka.go
package mq

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewKafkaReader 创建一个带消费组的 Reader。
// 使用消费组意味着 offset 由我们手动 Commit，分区再均衡交给 Kafka。
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // 0 表示同步提交，配合手动 ack 语义
		StartOffset:    kafka.FirstOffset,
	})
}

// NewKafkaWriter 创建一个可靠性优先的 Writer：
// - Hash balancer: 相同 key 落到同一分区，保证按 orderId 的局部有序
// - RequireAll: 等待 ISR 全部确认，降低消息丢失风险
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  5 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// ProduceMessage 发送一条消息，并自动把当前的追踪上下文注入到消息头里
func ProduceMessage(ctx context.Context, writer *kafka.Writer, key, value []byte) error {
	msg := kafka.Message{
		Key:   key,
		Value: value,
	}
	InjectTraceContext(ctx, &msg.Headers)
	return writer.WriteMessages(ctx, msg)
}
