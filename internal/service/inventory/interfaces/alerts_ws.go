// internal/service/inventory/interfaces/alerts_ws.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/service/inventory/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 内网运维面板，允许所有跨域
		return true
	},
}

const (
	alertWriteWait = 10 * time.Second
	alertPongWait  = 60 * time.Second
	alertPingEvery = (alertPongWait * 9) / 10
)

// Alert 是推给运维面板的一条告警
type Alert struct {
	Type      string    `json:"type"` // reorder | dead_letter
	ProductID int64     `json:"productId,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertHub 维护所有活跃的告警订阅连接，并负责广播。
// 告警是尽力而为的：没人订阅或者连接写满就丢弃，不能反压业务流程。
type AlertHub struct {
	clients    map[*alertClient]struct{}
	register   chan *alertClient
	unregister chan *alertClient
	broadcast  chan []byte
	lock       sync.RWMutex
}

func NewAlertHub() *AlertHub {
	return &AlertHub{
		clients:    make(map[*alertClient]struct{}),
		register:   make(chan *alertClient),
		unregister: make(chan *alertClient),
		broadcast:  make(chan []byte, 64),
	}
}

// Run 阻塞运行 hub 的事件循环，ctx 取消时关闭所有连接
func (h *AlertHub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client] = struct{}{}
			h.lock.Unlock()
			logger.Logger.Info().Str("remote", client.conn.RemoteAddr().String()).Msg("alert subscriber connected")
		case client := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.lock.Unlock()
		case payload := <-h.broadcast:
			h.lock.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default: // 订阅方消费太慢，丢弃这条告警
				}
			}
			h.lock.RUnlock()
		case <-ctx.Done():
			h.lock.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.lock.Unlock()
			return
		}
	}
}

// PublishReorderAdvisory 实现 domain.AdvisoryPublisher
func (h *AlertHub) PublishReorderAdvisory(ctx context.Context, record *domain.InventoryRecord) {
	h.publish(ctx, Alert{
		Type:      "reorder",
		ProductID: record.ProductID,
		Detail:    record.ProductName + " is at or below its reorder level",
		Timestamp: time.Now(),
	})
}

// PublishDeadLetterAdvisory 由死信监控调用，把新死信推到面板
func (h *AlertHub) PublishDeadLetterAdvisory(ctx context.Context, topic, detail string) {
	h.publish(ctx, Alert{
		Type:      "dead_letter",
		Topic:     topic,
		Detail:    detail,
		Timestamp: time.Now(),
	})
}

func (h *AlertHub) publish(ctx context.Context, alert Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to marshal alert")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		logger.Ctx(ctx).Warn().Str("type", alert.Type).Msg("alert channel full, dropping alert")
	}
}

// ServeWs 把 HTTP 请求升级为 WebSocket 告警订阅连接
func (h *AlertHub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &alertClient{hub: h, conn: conn, send: make(chan []byte, 64)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// alertClient 是一个告警订阅连接的代表
type alertClient struct {
	hub  *AlertHub
	conn *websocket.Conn
	send chan []byte
}

// writePump 把 send channel 中的告警写入连接，并周期性发 ping 保活
func (c *alertClient) writePump() {
	ticker := time.NewTicker(alertPingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(alertWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(alertWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只消费 pong 和关闭帧，订阅方不发业务消息
func (c *alertClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(alertPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(alertPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
