package main

import (
	"context"
	"flag"
	"os"
	"time"

	"airdrop/internal/api"
	"airdrop/internal/config"
	"airdrop/internal/distributor"
	"airdrop/internal/events"
	"airdrop/internal/ledger"
	"airdrop/internal/lock"
	"airdrop/internal/shutdown"
	"airdrop/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "配置文件路径")
	verbose    = flag.Bool("verbose", false, "详细输出")
	bootstrap  = flag.Bool("bootstrap", false, "启动时铸造各池初始份额（仅内存账本）")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// 自动检测并加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("加载配置失败: %v", err)
	}

	// 解析分发参数
	params, err := distributor.ParamsFromConfig(cfg.Distribution)
	if err != nil {
		logger.Fatalf("解析分发参数失败: %v", err)
	}
	if cfg.Ledger != nil {
		if err := params.ValidateLedgerMode(cfg.Ledger.Mode); err != nil {
			logger.Fatalf("账本模式与分发参数不兼容: %v", err)
		}
	}

	// 打开状态存储
	stateStore, err := store.NewStore(cfg.Distribution.StorePath, logger)
	if err != nil {
		logger.Fatalf("打开状态存储失败: %v", err)
	}

	// 创建事件输出器
	output, err := events.NewOutputWithConfig(cfg.Output.Directory, cfg.Output.Format, cfg.Output.Kafka)
	if err != nil {
		logger.Fatalf("创建事件输出器失败: %v", err)
	}

	// 创建账本协作方
	tokenLedger, ethLedger, err := buildLedger(cfg, logger)
	if err != nil {
		logger.Fatalf("创建账本失败: %v", err)
	}

	// 创建分发控制器，结构化日志按配置开启
	dist, err := distributor.NewDistributorWithLogging(params, stateStore, tokenLedger, lock.NewMemoryLock(logger), output, logger, cfg.Logging)
	if err != nil {
		logger.Fatalf("创建分发控制器失败: %v", err)
	}

	if *bootstrap {
		if err := dist.Bootstrap(context.Background()); err != nil {
			logger.Fatalf("铸造初始份额失败: %v", err)
		}
	}

	// 创建API服务器
	server := api.NewServer(cfg, dist, logger)

	// 数据库配置源可用时挂载在线配置管理
	if dsn := os.Getenv("AIRDROP_DB_DSN"); dsn != "" {
		if dbConfig, err := config.NewDatabaseConfig(dsn, logger); err == nil {
			server.SetConfigManager(api.NewConfigManager(dbConfig, logger))
		} else {
			logger.Warnf("连接配置数据库失败，在线配置管理不可用: %v", err)
		}
	}

	// 注册优雅停机
	gs := shutdown.NewGracefulShutdown(30*time.Second, logger)
	gs.RegisterShutdownFunc("api_server", func(ctx context.Context) error {
		return server.Stop()
	}, shutdown.OrderStopAcceptingRequests)
	gs.RegisterShutdownFunc("event_output", func(ctx context.Context) error {
		return output.Close()
	}, shutdown.OrderFlushEvents)
	if ethLedger != nil {
		gs.RegisterShutdownFunc("ledger", func(ctx context.Context) error {
			ethLedger.Close()
			return nil
		}, shutdown.OrderCloseLedger)
	}
	gs.RegisterShutdownFunc("state_store", func(ctx context.Context) error {
		return stateStore.Close()
	}, shutdown.OrderCloseStore)

	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("API服务器退出: %v", err)
			gs.Shutdown()
		}
	}()

	gs.WaitForShutdown()
	logger.Info("服务已关闭")
}

// buildLedger 根据配置选择账本实现
func buildLedger(cfg *config.Config, logger *logrus.Logger) (ledger.Ledger, *ledger.EthLedger, error) {
	if cfg.Ledger != nil && cfg.Ledger.Mode == "eth" {
		ethLedger, err := ledger.NewEthLedger(
			cfg.Ledger.RPCURL,
			common.HexToAddress(cfg.Ledger.Token),
			cfg.Ledger.PrivateKey,
			cfg.Ledger.ChainID,
			logger,
		)
		if err != nil {
			return nil, nil, err
		}
		return ethLedger, ethLedger, nil
	}

	return ledger.NewMemoryLedger(logger), nil, nil
}
