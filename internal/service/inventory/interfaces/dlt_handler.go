// internal/service/inventory/interfaces/dlt_handler.go
package interfaces

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/pkg/mq"
)

// DltConsumerAdapter 监听一个死信 topic，记录结构化日志、计指标并推送告警。
// 死信消息总是直接提交：落到这里的消息已经被判定为不可恢复，
// 监控侧的职责是让人看见，而不是再处理一遍。
type DltConsumerAdapter struct {
	reader  *kafka.Reader
	alerts  *AlertHub
	wg      sync.WaitGroup
	stopped bool
}

func NewDltConsumerAdapter(reader *kafka.Reader, alerts *AlertHub) *DltConsumerAdapter {
	return &DltConsumerAdapter{
		reader: reader,
		alerts: alerts,
	}
}

func (a *DltConsumerAdapter) Start(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", a.reader.Config().Topic).Msg("✅ DLT Consumer Adapter started.")
		for {
			if a.stopped {
				return
			}
			msg, err := a.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Info().Msg("🛑 DLT Consumer Adapter shutting down.")
					return
				}
				continue
			}

			a.recordDeadLetter(ctx, msg)
		}
	}()
	return nil
}

func (a *DltConsumerAdapter) Stop(ctx context.Context) {
	a.stopped = true
	a.reader.Close()
	a.wg.Wait()
	logger.Ctx(ctx).Info().Str("topic", a.reader.Config().Topic).Msg("✅ DLT Consumer Adapter stopped.")
}

func (a *DltConsumerAdapter) recordDeadLetter(ctx context.Context, msg kafka.Message) {
	headers := make(map[string]string)
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	if cid := headers[mq.HeaderCorrelationID]; cid != "" {
		ctx = logger.WithCorrelationID(ctx, cid)
	}

	logger.Ctx(ctx).Error().
		Str("reason", "dead_letter_message_received").
		Str("original_topic", headers[mq.HeaderOriginalTopic]).
		Str("original_partition", headers[mq.HeaderOriginalPartition]).
		Str("original_offset", headers[mq.HeaderOriginalOffset]).
		Str("exception_type", headers[mq.HeaderExceptionFqcn]).
		Str("exception_message", headers[mq.HeaderExceptionMessage]).
		Str("retry_attempts", headers[mq.HeaderRetryAttempts]).
		Str("key", string(msg.Key)).
		Str("value", string(msg.Value)).
		Msg("🚨 CRITICAL: Dead letter message received")

	dltReceived.WithLabelValues(msg.Topic).Inc()

	if a.alerts != nil {
		a.alerts.PublishDeadLetterAdvisory(ctx, headers[mq.HeaderOriginalTopic], headers[mq.HeaderExceptionMessage])
	}
}
