// internal/service/inventory/interfaces/metrics.go
package interfaces

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 消费管道的运维指标。死信和重试次数是告警的主要依据：
// retries 持续增长说明下游在抖动，dead_letters 增长必须有人看。
var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_events_processed_total",
		Help: "Order events processed by the consumer pipeline, by topic and outcome.",
	}, []string{"topic", "result"}) // result: success | dead_letter

	eventRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_event_retries_total",
		Help: "Retry attempts for retryable processing failures.",
	}, []string{"topic"})

	deadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_dead_letters_total",
		Help: "Events routed to the dead letter topic.",
	}, []string{"topic", "reason"}) // reason: malformed | non_retryable | retries_exhausted

	dltReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_dlt_messages_received_total",
		Help: "Messages observed on dead letter topics by the DLT monitor.",
	}, []string{"topic"})
)
