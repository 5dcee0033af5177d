package mq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadLetterTopic(t *testing.T) {
	assert.Equal(t, "order.created.dlq", DeadLetterTopic("order.created"))
	assert.Equal(t, "order.cancelled.dlq", DeadLetterTopic("order.cancelled"))
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 2*time.Second, policy.Backoff)
	assert.Equal(t, 30*time.Second, policy.AttemptTimeout)
}

func TestRetryPolicy_WaitRespectsCancellation(t *testing.T) {
	policy := RetryPolicy{Backoff: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := policy.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryPolicy_WaitElapses(t *testing.T) {
	policy := RetryPolicy{Backoff: 5 * time.Millisecond}
	assert.NoError(t, policy.Wait(context.Background()))
}
