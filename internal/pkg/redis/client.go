// internal/pkg/redis/client.go
package redis

import (
	"context"
	"strings"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// Client 封装 go-redis 客户端。
// 单地址时用普通 Client，多地址时用 ClusterClient，对上层无感。
type Client struct {
	rdb rd.UniversalClient
}

// NewClient 创建 redis 客户端并做一次连通性检查。
// addrs 格式为 "host1:port1,host2:port2"。
func NewClient(addrs string) (*Client, error) {
	list := strings.Split(addrs, ",")
	rdb := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs:        list,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端给需要 pipeline 等高级能力的调用方
func (c *Client) GetClient() rd.UniversalClient {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
