// internal/service/inventory/infrastructure/advisory_kafka.go
package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/pkg/mq"
	"stocknexus/internal/service/inventory/domain"
)

// TopicReorderAdvisory 承载补货建议事件，采购/BI 侧订阅
const TopicReorderAdvisory = "inventory.reorder"

// reorderAdvisoryEvent 是发到 kafka 的补货建议载荷
type reorderAdvisoryEvent struct {
	ProductID         int64     `json:"productId"`
	ProductName       string    `json:"productName"`
	QuantityAvailable int       `json:"quantityAvailable"`
	QuantityReserved  int       `json:"quantityReserved"`
	ReorderLevel      int       `json:"reorderLevel"`
	Timestamp         time.Time `json:"timestamp"`
}

// KafkaAdvisoryPublisher 把补货建议发布为 kafka 事件。
// 发布失败只记日志：建议信号丢了可以由下一次预留补上，不值得让主流程失败。
type KafkaAdvisoryPublisher struct {
	writer *kafka.Writer
}

func NewKafkaAdvisoryPublisher(brokers []string) *KafkaAdvisoryPublisher {
	return &KafkaAdvisoryPublisher{writer: mq.NewKafkaWriter(brokers, TopicReorderAdvisory)}
}

func (p *KafkaAdvisoryPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaAdvisoryPublisher) PublishReorderAdvisory(ctx context.Context, record *domain.InventoryRecord) {
	payload, err := json.Marshal(reorderAdvisoryEvent{
		ProductID:         record.ProductID,
		ProductName:       record.ProductName,
		QuantityAvailable: record.QuantityAvailable,
		QuantityReserved:  record.QuantityReserved,
		ReorderLevel:      record.ReorderLevel,
		Timestamp:         time.Now(),
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to marshal reorder advisory")
		return
	}

	key := []byte(strconv.FormatInt(record.ProductID, 10))
	if err := mq.ProduceMessage(ctx, p.writer, key, payload); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Int64("product_id", record.ProductID).
			Msg("failed to publish reorder advisory")
	}
}

// FanoutAdvisoryPublisher 把同一条建议广播给多个下游（kafka、告警面板）
type FanoutAdvisoryPublisher struct {
	targets []domain.AdvisoryPublisher
}

func NewFanoutAdvisoryPublisher(targets ...domain.AdvisoryPublisher) *FanoutAdvisoryPublisher {
	return &FanoutAdvisoryPublisher{targets: targets}
}

func (p *FanoutAdvisoryPublisher) PublishReorderAdvisory(ctx context.Context, record *domain.InventoryRecord) {
	for _, target := range p.targets {
		target.PublishReorderAdvisory(ctx, record)
	}
}
