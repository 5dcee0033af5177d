// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"stocknexus/internal/service/inventory/application"
)

const serviceName = "inventory-service"

// InventoryHandler 封装库存服务的 HTTP 查询接口。
// 写路径全部走 Kafka 事件，HTTP 只暴露只读查询和运维端点。
type InventoryHandler struct {
	service *application.InventoryApplicationService
	alerts  *AlertHub
}

func NewInventoryHandler(service *application.InventoryApplicationService, alerts *AlertHub) *InventoryHandler {
	return &InventoryHandler{service: service, alerts: alerts}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/check_availability", h.checkAvailabilityHandler)
	mux.HandleFunc("/reorder_report", h.reorderReportHandler)
	if h.alerts != nil {
		mux.HandleFunc("/ws/alerts", h.alerts.ServeWs)
	}
}

func (h *InventoryHandler) checkAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "api.CheckAvailability")
	defer span.End()

	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		quantity = 1
	}

	span.SetAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	available := h.service.CheckAvailability(ctx, productID, quantity)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"productId": productID,
		"quantity":  quantity,
		"available": available,
	})
}

func (h *InventoryHandler) reorderReportHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "api.ReorderReport")
	defer span.End()

	records, err := h.service.FindProductsNeedingReorder(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type reorderItem struct {
		ProductID         int64  `json:"productId"`
		ProductName       string `json:"productName"`
		QuantityAvailable int    `json:"quantityAvailable"`
		QuantityReserved  int    `json:"quantityReserved"`
		ReorderLevel      int    `json:"reorderLevel"`
	}
	items := make([]reorderItem, 0, len(records))
	for _, rec := range records {
		items = append(items, reorderItem{
			ProductID:         rec.ProductID,
			ProductName:       rec.ProductName,
			QuantityAvailable: rec.QuantityAvailable,
			QuantityReserved:  rec.QuantityReserved,
			ReorderLevel:      rec.ReorderLevel,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"items": items, "count": len(items)})
}
