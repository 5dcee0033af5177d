// cmd/dlt-monitor/main.go
package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stocknexus/internal/pkg/bootstrap"
	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/pkg/mq"
	"stocknexus/internal/service/inventory/interfaces"
)

const (
	serviceName = "dlt-monitor"
	groupID     = "dlt-monitor-group"
)

// dlt-monitor 订阅所有死信 topic，把死信以结构化日志、指标和
// WebSocket 告警三种形式暴露出来。它不做任何补救，补救是人的事。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8092,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Config

			alertHub := interfaces.NewAlertHub()
			hubCtx, hubCancel := context.WithCancel(context.Background())
			go alertHub.Run(hubCtx)
			appCtx.AddShutdownHook(func(ctx context.Context) { hubCancel() })

			sourceTopics := []string{
				cfg.Infra.Kafka.CreatedTopic,
				cfg.Infra.Kafka.UpdatedTopic,
				cfg.Infra.Kafka.CancelledTopic,
			}
			for _, topic := range sourceTopics {
				dlqTopic := mq.DeadLetterTopic(topic)
				reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, dlqTopic, groupID)
				adapter := interfaces.NewDltConsumerAdapter(reader, alertHub)
				if err := adapter.Start(context.Background()); err != nil {
					logger.Logger.Fatal().Err(err).Str("topic", dlqTopic).Msg("failed to start DLT consumer")
				}
				appCtx.AddShutdownHook(adapter.Stop)
			}

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/ws/alerts", alertHub.ServeWs)
		},
	})
}
