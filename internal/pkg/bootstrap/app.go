// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/pkg/nacos"
	"stocknexus/internal/pkg/tracing"
)

// AppCtx 传递给各服务的路由注册回调。
// 回调里组装的资源（DB、consumer 等）通过 AddShutdownHook 挂接清理逻辑。
type AppCtx struct {
	Mux             *http.ServeMux
	Config          *Config
	AddShutdownHook func(fn func(ctx context.Context))
}

// AppInfo 包含启动一个服务所需的全部信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)   // 每个服务注册自己的 HTTP 路由
	OnShutdown       []func(ctx context.Context) // 关停钩子，LIFO 执行
}

// StartService 封装通用的启动和优雅关停逻辑：
// 配置加载 -> tracer -> (可选)Nacos 注册 -> HTTP server -> 信号等待 -> 清理。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	cfg, err := LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	if info.Port == 0 {
		info.Port = cfg.App.Port
	}

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// Nacos 注册是可选的：本地开发/单测不依赖注册中心
	var namingClient *nacos.Client
	var outboundIP string
	if cfg.Infra.Nacos.Enabled {
		namingClient, err = nacos.NewClient(cfg.Infra.Nacos.Addrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		outboundIP, err = getOutboundIP()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := namingClient.RegisterServiceInstance(info.ServiceName, outboundIP, info.Port); err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	mux := http.NewServeMux()
	shutdownHooks := append([]func(ctx context.Context){}, info.OnShutdown...)
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{
			Mux:    mux,
			Config: cfg,
			AddShutdownHook: func(fn func(ctx context.Context)) {
				shutdownHooks = append(shutdownHooks, fn)
			},
		})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger.Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 清理顺序：后注册的先关（LIFO）
	for i := len(shutdownHooks) - 1; i >= 0; i-- {
		shutdownHooks[i](ctx)
	}

	if namingClient != nil {
		if err := namingClient.DeregisterServiceInstance(info.ServiceName, outboundIP, info.Port); err != nil {
			logger.Logger.Error().Err(err).Msg("Error deregistering from Nacos")
		}
	}

	// 关闭 Tracer Provider，确保缓冲中的 trace 都被发送出去
	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Error shutting down http server")
	}

	logger.Logger.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}

// getOutboundIP 通过一次 UDP "连接" 拿到本机对外 IP，用于服务注册
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
