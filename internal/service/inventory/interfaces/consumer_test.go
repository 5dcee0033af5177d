package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocknexus/internal/pkg/mq"
	"stocknexus/internal/service/inventory/domain"
)

type recordedFailure struct {
	msg      kafka.Message
	attempts int
	cause    error
}

type fakeFailureSink struct {
	failures []recordedFailure
	err      error
}

func (s *fakeFailureSink) Handle(ctx context.Context, msg kafka.Message, attempts int, cause error) error {
	if s.err != nil {
		return s.err
	}
	s.failures = append(s.failures, recordedFailure{msg: msg, attempts: attempts, cause: cause})
	return nil
}

func testPolicy() mq.RetryPolicy {
	return mq.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond, AttemptTimeout: time.Second}
}

func newTestConsumer(sink FailureSink, dispatch EventDispatch) *OrderEventConsumer {
	return NewOrderEventConsumer(
		nil,
		"test-group",
		domain.TopicOrderCreated,
		1,
		testPolicy(),
		sink,
		(*domain.OrderEvent).ValidateCreated,
		dispatch,
	)
}

func createdMessage(t *testing.T, orderID int64) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(domain.OrderEvent{
		EventID:       "evt-1",
		EventType:     "ORDER_CREATED",
		CorrelationID: "corr-1",
		OrderID:       orderID,
		ProductID:     100,
		Quantity:      5,
	})
	require.NoError(t, err)
	return kafka.Message{Topic: domain.TopicOrderCreated, Key: []byte(fmt.Sprint(orderID)), Value: payload}
}

func TestProcessMessage_Success(t *testing.T) {
	sink := &fakeFailureSink{}
	calls := 0
	consumer := newTestConsumer(sink, func(ctx context.Context, event *domain.OrderEvent) error {
		calls++
		assert.Equal(t, int64(7001), event.OrderID)
		return nil
	})

	require.NoError(t, consumer.processMessage(context.Background(), createdMessage(t, 7001)))
	assert.Equal(t, 1, calls)
	assert.Empty(t, sink.failures)
}

func TestProcessMessage_RetryableFailureRecovers(t *testing.T) {
	sink := &fakeFailureSink{}
	calls := 0
	consumer := newTestConsumer(sink, func(ctx context.Context, event *domain.OrderEvent) error {
		calls++
		if calls < 3 {
			return domain.ErrVersionConflict
		}
		return nil
	})

	require.NoError(t, consumer.processMessage(context.Background(), createdMessage(t, 7001)))
	assert.Equal(t, 3, calls)
	assert.Empty(t, sink.failures)
}

func TestProcessMessage_RetriesExhaustedGoesToDeadLetter(t *testing.T) {
	sink := &fakeFailureSink{}
	calls := 0
	consumer := newTestConsumer(sink, func(ctx context.Context, event *domain.OrderEvent) error {
		calls++
		return domain.ErrInsufficientStock
	})

	require.NoError(t, consumer.processMessage(context.Background(), createdMessage(t, 7001)))
	// 1 次首次处理 + 3 次重试
	assert.Equal(t, 4, calls)
	require.Len(t, sink.failures, 1)
	assert.Equal(t, 4, sink.failures[0].attempts)
	assert.True(t, errors.Is(sink.failures[0].cause, domain.ErrInsufficientStock))
}

func TestProcessMessage_NonRetryableShortCircuits(t *testing.T) {
	sink := &fakeFailureSink{}
	calls := 0
	consumer := newTestConsumer(sink, func(ctx context.Context, event *domain.OrderEvent) error {
		calls++
		return domain.ErrProductNotFound
	})

	require.NoError(t, consumer.processMessage(context.Background(), createdMessage(t, 7001)))
	// 确定性失败不重试，第一次就进死信
	assert.Equal(t, 1, calls)
	require.Len(t, sink.failures, 1)
	assert.Equal(t, 1, sink.failures[0].attempts)
}

func TestProcessMessage_MalformedJSONSkipsDispatch(t *testing.T) {
	sink := &fakeFailureSink{}
	calls := 0
	consumer := newTestConsumer(sink, func(ctx context.Context, event *domain.OrderEvent) error {
		calls++
		return nil
	})

	msg := kafka.Message{Topic: domain.TopicOrderCreated, Value: []byte("{not json")}
	require.NoError(t, consumer.processMessage(context.Background(), msg))
	assert.Equal(t, 0, calls)
	require.Len(t, sink.failures, 1)
	assert.True(t, errors.Is(sink.failures[0].cause, domain.ErrMalformedEvent))
}

func TestProcessMessage_ValidationFailureSkipsDispatch(t *testing.T) {
	sink := &fakeFailureSink{}
	calls := 0
	consumer := newTestConsumer(sink, func(ctx context.Context, event *domain.OrderEvent) error {
		calls++
		return nil
	})

	payload, _ := json.Marshal(domain.OrderEvent{OrderID: 7001}) // 缺 productId/quantity
	msg := kafka.Message{Topic: domain.TopicOrderCreated, Value: payload}
	require.NoError(t, consumer.processMessage(context.Background(), msg))
	assert.Equal(t, 0, calls)
	require.Len(t, sink.failures, 1)
	assert.True(t, errors.Is(sink.failures[0].cause, domain.ErrMalformedEvent))
}

func TestProcessMessage_DeadLetterPublishFailureIsReturned(t *testing.T) {
	sink := &fakeFailureSink{err: errors.New("broker unreachable")}
	consumer := newTestConsumer(sink, func(ctx context.Context, event *domain.OrderEvent) error {
		return domain.ErrProductNotFound
	})

	// 死信都发不出去时必须把错误抛给调用方，offset 不能提交
	err := consumer.processMessage(context.Background(), createdMessage(t, 7001))
	require.Error(t, err)
}

func TestIsNonRetryable(t *testing.T) {
	assert.True(t, isNonRetryable(domain.ErrProductNotFound))
	assert.True(t, isNonRetryable(domain.ErrInvalidState))
	assert.True(t, isNonRetryable(domain.ErrMalformedEvent))
	assert.True(t, isNonRetryable(fmt.Errorf("wrapped: %w", domain.ErrProductNotFound)))

	assert.False(t, isNonRetryable(domain.ErrInsufficientStock))
	assert.False(t, isNonRetryable(domain.ErrVersionConflict))
	assert.False(t, isNonRetryable(context.DeadlineExceeded))
	assert.False(t, isNonRetryable(errors.New("connection reset")))
}
