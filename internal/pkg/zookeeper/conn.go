// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 包装 zk.Conn，锁实现只依赖这里暴露的方法
type Conn struct {
	*zk.Conn
}

// Connect 建立 ZooKeeper 会话
func Connect(addrs []string, sessionTimeout time.Duration) (*Conn, error) {
	if sessionTimeout <= 0 {
		sessionTimeout = 10 * time.Second
	}
	conn, _, err := zk.Connect(addrs, sessionTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}
