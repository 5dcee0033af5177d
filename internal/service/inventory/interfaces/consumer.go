// internal/service/inventory/interfaces/consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/pkg/mq"
	"stocknexus/internal/service/inventory/domain"
)

// EventDispatch 把一条已解析校验的订单事件交给应用层处理
type EventDispatch func(ctx context.Context, event *domain.OrderEvent) error

// FailureSink 接收被判定为不可恢复的消息，生产实现是 mq.FailureHandler
type FailureSink interface {
	Handle(ctx context.Context, msg kafka.Message, attempts int, cause error) error
}

// OrderEventConsumer 消费单个订单事件 topic。
// 手动提交 offset：只有处理成功或已发布死信的消息才提交，
// 消费者崩溃时未提交的消息会被重新投递，幂等层兜底重复处理。
//
// 同一个 group 可以起多个 worker，各自持有独立的 reader，
// kafka 按分区做负载均衡；同一订单的事件因按 orderId 分区天然有序。
type OrderEventConsumer struct {
	brokers  []string
	groupID  string
	topic    string
	workers  int
	policy   mq.RetryPolicy
	failures FailureSink
	validate func(*domain.OrderEvent) error
	dispatch EventDispatch
	tracer   trace.Tracer
}

func NewOrderEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	workers int,
	policy mq.RetryPolicy,
	failures FailureSink,
	validate func(*domain.OrderEvent) error,
	dispatch EventDispatch,
) *OrderEventConsumer {
	if workers <= 0 {
		workers = 1
	}
	return &OrderEventConsumer{
		brokers:  brokers,
		groupID:  groupID,
		topic:    topic,
		workers:  workers,
		policy:   policy,
		failures: failures,
		validate: validate,
		dispatch: dispatch,
		tracer:   otel.Tracer("inventory-consumer"),
	}
}

// Run 启动所有 worker 并阻塞到 ctx 取消。任一 worker 的致命错误会带停整组。
func (c *OrderEventConsumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.workers; i++ {
		worker := i
		g.Go(func() error {
			return c.consumeLoop(ctx, worker)
		})
	}
	return g.Wait()
}

func (c *OrderEventConsumer) consumeLoop(ctx context.Context, worker int) error {
	reader := mq.NewKafkaReader(c.brokers, c.topic, c.groupID)
	defer reader.Close()

	logger.Logger.Info().
		Str("topic", c.topic).
		Int("worker", worker).
		Msg("🚀 Order event consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message from %s: %w", c.topic, err)
		}

		if err := c.processMessage(ctx, msg); err != nil {
			// 死信都发不出去，不提交 offset，等重新投递
			logger.Ctx(ctx).Error().Err(err).
				Str("topic", c.topic).
				Int64("offset", msg.Offset).
				Msg("failed to finalize message, offset not committed")
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("topic", c.topic).
				Int64("offset", msg.Offset).
				Msg("failed to commit offset")
		}
	}
}

// processMessage 返回 nil 表示该消息已终结（处理成功或已进死信），可以提交 offset
func (c *OrderEventConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	ctx = mq.ExtractTraceContext(ctx, msg.Headers)

	var event domain.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return c.deadLetter(ctx, msg, 1, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err), "malformed")
	}

	correlationID := event.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = logger.WithCorrelationID(ctx, correlationID)

	ctx, span := c.tracer.Start(ctx, "inventory.consume "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination", c.topic),
			attribute.Int64("order.id", event.OrderID),
		))
	defer span.End()

	if err := c.validate(&event); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return c.deadLetter(ctx, msg, 1, err, "malformed")
	}

	var lastErr error
	for attempt := 1; attempt <= 1+c.policy.MaxAttempts; attempt++ {
		lastErr = c.runAttempt(ctx, &event)
		if lastErr == nil {
			eventsProcessed.WithLabelValues(c.topic, "success").Inc()
			span.SetStatus(codes.Ok, "")
			return nil
		}

		if isNonRetryable(lastErr) {
			span.RecordError(lastErr)
			span.SetStatus(codes.Error, lastErr.Error())
			return c.deadLetter(ctx, msg, attempt, lastErr, "non_retryable")
		}

		if attempt <= c.policy.MaxAttempts {
			eventRetries.WithLabelValues(c.topic).Inc()
			logger.Ctx(ctx).Warn().Err(lastErr).
				Str("topic", c.topic).
				Int64("order_id", event.OrderID).
				Int("attempt", attempt).
				Int("max_attempts", 1+c.policy.MaxAttempts).
				Msg("⏳ Event processing failed, will retry")
			if err := c.policy.Wait(ctx); err != nil {
				return err
			}
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return c.deadLetter(ctx, msg, 1+c.policy.MaxAttempts, lastErr, "retries_exhausted")
}

// runAttempt 执行单次处理，受 AttemptTimeout 约束，避免慢查询卡死整个分区
func (c *OrderEventConsumer) runAttempt(ctx context.Context, event *domain.OrderEvent) error {
	if c.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.AttemptTimeout)
		defer cancel()
	}
	return c.dispatch(ctx, event)
}

func (c *OrderEventConsumer) deadLetter(ctx context.Context, msg kafka.Message, attempts int, cause error, reason string) error {
	if err := c.failures.Handle(ctx, msg, attempts, cause); err != nil {
		return err
	}
	eventsProcessed.WithLabelValues(c.topic, "dead_letter").Inc()
	deadLetters.WithLabelValues(c.topic, reason).Inc()
	return nil
}

// isNonRetryable 判定错误是否重试无望。
// 商品不存在、状态机非法、消息结构坏掉都是确定性失败，重试只会浪费三次机会；
// 库存不足和版本冲突是瞬时的，订单取消或并发退让后可能成功。
func isNonRetryable(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrInvalidState) ||
		errors.Is(err, domain.ErrMalformedEvent)
}
