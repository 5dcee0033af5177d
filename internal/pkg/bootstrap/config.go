// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是服务的全部外部配置面。核心业务逻辑不直接读环境变量，
// 统一从这里取值，便于以后接回配置中心。
type Config struct {
	App struct {
		ServiceName string `yaml:"serviceName"`
		Port        int    `yaml:"port"`
	} `yaml:"app"`

	Infra struct {
		Kafka struct {
			Brokers        []string `yaml:"brokers"`
			GroupID        string   `yaml:"groupId"`
			CreatedTopic   string   `yaml:"createdTopic"`
			UpdatedTopic   string   `yaml:"updatedTopic"`
			CancelledTopic string   `yaml:"cancelledTopic"`
		} `yaml:"kafka"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addrs        string `yaml:"addrs"`
			CacheTTLSecs int    `yaml:"cacheTtlSecs"`
		} `yaml:"redis"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Addrs []string `yaml:"addrs"`
		} `yaml:"zookeeper"`
		Nacos struct {
			Enabled   bool   `yaml:"enabled"`
			Addrs     string `yaml:"addrs"`
			Namespace string `yaml:"namespace"`
			Group     string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`

	Consumer struct {
		Workers            int `yaml:"workers"`            // 每个 topic 的并发 worker 数
		MaxRetryAttempts   int `yaml:"maxRetryAttempts"`   // 可重试失败的额外重试次数
		RetryBackoffMs     int `yaml:"retryBackoffMs"`     // 固定重试间隔
		AttemptTimeoutSecs int `yaml:"attemptTimeoutSecs"` // 单次处理超时
	} `yaml:"consumer"`

	Inventory struct {
		LockMode    string `yaml:"lockMode"`    // local | zk
		ReorderRule string `yaml:"reorderRule"` // CEL 表达式，空则用默认规则
	} `yaml:"inventory"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回当前生效的配置，LoadConfig 之前返回默认值
func GetCurrentConfig() *Config {
	if c := currentConfig.Load(); c != nil {
		return c
	}
	c := defaultConfig()
	currentConfig.Store(c)
	return c
}

// LoadConfig 读取 yaml 配置文件并套用环境变量覆盖。
// path 为空或文件不存在时只使用默认值 + 环境变量。
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.ServiceName = "inventory-service"
	cfg.App.Port = 8082
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Kafka.GroupID = "inventory-service-group"
	cfg.Infra.Kafka.CreatedTopic = "order.created"
	cfg.Infra.Kafka.UpdatedTopic = "order.updated"
	cfg.Infra.Kafka.CancelledTopic = "order.cancelled"
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/inventory_db?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Redis.CacheTTLSecs = 5
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	cfg.Consumer.Workers = 3
	cfg.Consumer.MaxRetryAttempts = 3
	cfg.Consumer.RetryBackoffMs = 2000
	cfg.Consumer.AttemptTimeoutSecs = 30
	cfg.Inventory.LockMode = "local"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
		cfg.Infra.Kafka.GroupID = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("REDIS_ADDRS"); v != "" {
		cfg.Infra.Redis.Addrs = v
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("ZOOKEEPER_ADDRS"); v != "" {
		cfg.Infra.Zookeeper.Addrs = strings.Split(v, ",")
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		cfg.Infra.Nacos.Enabled = true
		cfg.Infra.Nacos.Addrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		cfg.Infra.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		cfg.Infra.Nacos.Group = v
	}
	if v := os.Getenv("CONSUMER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Consumer.Workers = n
		}
	}
	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Consumer.MaxRetryAttempts = n
		}
	}
	if v := os.Getenv("RETRY_BACKOFF_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Consumer.RetryBackoffMs = n
		}
	}
	if v := os.Getenv("INVENTORY_LOCK_MODE"); v != "" {
		cfg.Inventory.LockMode = v
	}
	if v := os.Getenv("REORDER_RULE"); v != "" {
		cfg.Inventory.ReorderRule = v
	}
}

// RetryBackoff 把毫秒配置转成 Duration，给消费管道用
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Consumer.RetryBackoffMs) * time.Millisecond
}

// AttemptTimeout 单次处理的墙上时钟上限
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Consumer.AttemptTimeoutSecs) * time.Second
}
