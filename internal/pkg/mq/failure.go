// internal/pkg/mq/failure.go
package mq

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"stocknexus/internal/pkg/logger"
)

// 死信消息上携带的溯源 header，监控侧（dlt-monitor）依赖这些字段定位问题
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderExceptionFqcn     = "x-exception-type"
	HeaderExceptionMessage  = "x-exception-message"
	HeaderRetryAttempts     = "x-retry-attempts"
	HeaderCorrelationID     = "x-correlation-id"
)

// DeadLetterTopic 根据源 topic 推导死信 topic 名称
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}

// RetryPolicy 描述消费失败后的重试策略：固定间隔重试 MaxAttempts 次，
// 每次处理有独立的超时上限。策略对象构建一次，传给每个 worker。
type RetryPolicy struct {
	MaxAttempts    int           // 首次之外的额外重试次数
	Backoff        time.Duration // 两次尝试之间的固定间隔
	AttemptTimeout time.Duration // 单次处理的墙上时钟上限，0 表示不限制
}

// DefaultRetryPolicy 与原库存服务的消费者配置保持一致
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Backoff:        2 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

// Wait 在两次尝试之间阻塞，ctx 取消时立即返回
func (p RetryPolicy) Wait(ctx context.Context) error {
	select {
	case <-time.After(p.Backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FailureHandler 是所有消费者共享的死信出口。
// 消息被判定为不可恢复后，带上原始 key/value 和溯源 header 发布到 <topic>.dlq，
// 之后源 topic 的 offset 照常提交 —— 死信即“已处理”。
type FailureHandler struct {
	writer *kafka.Writer
}

// NewFailureHandler 创建死信发布器。writer 不绑定固定 topic，
// 目标 topic 由每条消息的来源决定。
func NewFailureHandler(brokers []string) *FailureHandler {
	return &FailureHandler{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (h *FailureHandler) Close() error {
	return h.writer.Close()
}

// Handle 把一条处理失败的消息发布到对应的死信 topic。
// attempts 是已经消耗的处理次数，cause 是最后一次失败的原因。
func (h *FailureHandler) Handle(ctx context.Context, msg kafka.Message, attempts int, cause error) error {
	dlqTopic := DeadLetterTopic(msg.Topic)

	dead := kafka.Message{
		Topic: dlqTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafka.Header{}, msg.Headers...),
			kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
			kafka.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
			kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			kafka.Header{Key: HeaderExceptionFqcn, Value: []byte(fmt.Sprintf("%T", cause))},
			kafka.Header{Key: HeaderExceptionMessage, Value: []byte(cause.Error())},
			kafka.Header{Key: HeaderRetryAttempts, Value: []byte(strconv.Itoa(attempts))},
		),
	}
	if cid := logger.CorrelationID(ctx); cid != "" {
		dead.Headers = append(dead.Headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(cid)})
	}
	InjectTraceContext(ctx, &dead.Headers)

	if err := h.writer.WriteMessages(ctx, dead); err != nil {
		return fmt.Errorf("failed to publish dead letter to %s: %w", dlqTopic, err)
	}

	logger.Ctx(ctx).Error().
		Err(cause).
		Str("topic", msg.Topic).
		Str("dlq_topic", dlqTopic).
		Str("key", string(msg.Key)).
		Int("attempts", attempts).
		Msg("🚨 Message routed to dead letter topic")
	return nil
}
