// cmd/inventory-service/main.go
package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"stocknexus/internal/pkg/bootstrap"
	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/pkg/mq"
	"stocknexus/internal/pkg/redis"
	"stocknexus/internal/pkg/zookeeper"
	"stocknexus/internal/service/inventory/application"
	"stocknexus/internal/service/inventory/domain"
	"stocknexus/internal/service/inventory/infrastructure"
	"stocknexus/internal/service/inventory/infrastructure/rule"
	"stocknexus/internal/service/inventory/interfaces"
)

const serviceName = "inventory-service"

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Config

			db, err := infrastructure.NewDB(cfg.Infra.Mysql.DSN)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to initialize database")
			}

			locker := buildProductLocker(appCtx)

			reorderPolicy, err := rule.NewCELReorderPolicy(cfg.Inventory.ReorderRule)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("invalid reorder rule expression")
			}

			alertHub := interfaces.NewAlertHub()
			hubCtx, hubCancel := context.WithCancel(context.Background())
			go alertHub.Run(hubCtx)
			appCtx.AddShutdownHook(func(ctx context.Context) { hubCancel() })

			// 补货建议同时走告警面板和 kafka（采购侧订阅）
			advisoryProducer := infrastructure.NewKafkaAdvisoryPublisher(cfg.Infra.Kafka.Brokers)
			appCtx.AddShutdownHook(func(ctx context.Context) { advisoryProducer.Close() })
			advisories := infrastructure.NewFanoutAdvisoryPublisher(alertHub, advisoryProducer)

			service := application.NewInventoryApplicationService(
				infrastructure.NewGormLedgerRepository(db),
				infrastructure.NewGormReservationRepository(db),
				infrastructure.NewGormTxManager(db),
				locker,
				reorderPolicy,
				advisories,
				otel.Tracer(serviceName),
			)

			// 可用性查询缓存是可选的：redis 连不上只是降级成纯 DB 查询
			if redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs); err != nil {
				logger.Logger.Warn().Err(err).Msg("redis unavailable, availability cache disabled")
			} else {
				ttl := time.Duration(cfg.Infra.Redis.CacheTTLSecs) * time.Second
				service.SetAvailabilityCache(infrastructure.NewRedisAvailabilityCache(redisClient, ttl))
				appCtx.AddShutdownHook(func(ctx context.Context) { redisClient.Close() })
			}

			startConsumers(appCtx, service)

			interfaces.NewInventoryHandler(service, alertHub).RegisterRoutes(appCtx.Mux)
		},
	})
}

// buildProductLocker 按配置选择锁实现：单实例部署用进程内锁，
// 多实例部署用 zookeeper 分布式锁保证跨实例互斥。
func buildProductLocker(appCtx bootstrap.AppCtx) domain.ProductLocker {
	cfg := appCtx.Config
	if cfg.Inventory.LockMode != "zk" {
		return infrastructure.NewLocalProductLocker()
	}

	conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Addrs, 5*time.Second)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to zookeeper")
	}
	appCtx.AddShutdownHook(func(ctx context.Context) { conn.Close() })
	return infrastructure.NewZkProductLocker(conn)
}

// startConsumers 为三个订单事件 topic 各启动一组消费 worker
func startConsumers(appCtx bootstrap.AppCtx, service *application.InventoryApplicationService) {
	cfg := appCtx.Config

	policy := mq.RetryPolicy{
		MaxAttempts:    cfg.Consumer.MaxRetryAttempts,
		Backoff:        cfg.RetryBackoff(),
		AttemptTimeout: cfg.AttemptTimeout(),
	}
	failures := mq.NewFailureHandler(cfg.Infra.Kafka.Brokers)
	appCtx.AddShutdownHook(func(ctx context.Context) { failures.Close() })

	dispatcher := interfaces.NewEventDispatcher(service)

	routes := []struct {
		topic    string
		validate func(*domain.OrderEvent) error
		dispatch interfaces.EventDispatch
	}{
		{cfg.Infra.Kafka.CreatedTopic, (*domain.OrderEvent).ValidateCreated, dispatcher.HandleOrderCreated},
		{cfg.Infra.Kafka.UpdatedTopic, (*domain.OrderEvent).ValidateUpdated, dispatcher.HandleOrderUpdated},
		{cfg.Infra.Kafka.CancelledTopic, (*domain.OrderEvent).ValidateCancelled, dispatcher.HandleOrderCancelled},
	}

	consumerCtx, cancel := context.WithCancel(context.Background())
	appCtx.AddShutdownHook(func(ctx context.Context) { cancel() })

	for _, route := range routes {
		consumer := interfaces.NewOrderEventConsumer(
			cfg.Infra.Kafka.Brokers,
			cfg.Infra.Kafka.GroupID,
			route.topic,
			cfg.Consumer.Workers,
			policy,
			failures,
			route.validate,
			route.dispatch,
		)
		go func(c *interfaces.OrderEventConsumer, topic string) {
			if err := c.Run(consumerCtx); err != nil {
				logger.Logger.Error().Err(err).Str("topic", topic).Msg("consumer group stopped with error")
			}
		}(consumer, route.topic)
	}
}
