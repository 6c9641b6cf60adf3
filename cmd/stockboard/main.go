package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stockboard/internal/config"
	"stockboard/internal/dashboard"
	"stockboard/internal/event"
	"stockboard/internal/export"
	"stockboard/internal/rules"
	"stockboard/internal/server"
	"stockboard/internal/source"
	"stockboard/internal/store"
	"stockboard/internal/syncsvc"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Stockboard - 库存订单数据看板")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	// 确保数据目录存在
	dataPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Printf("创建数据目录失败: %v", err)
		dataPath = cfg.Data.DataDir
	} else {
		fmt.Printf("数据目录: %s\n", dataPath)
	}

	// 初始化日志
	logger, err := newLogger(cfg.Server.DevMode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

	// 加载校验规则
	ruleSet, err := rules.Load(dataPath)
	if err != nil {
		log.Fatalf("加载校验规则失败: %v", err)
	}

	// 初始化快照存储
	snapshotPath := filepath.Join(dataPath, "snapshots", "stockboard.db")
	snapshots, err := store.New(snapshotPath)
	if err != nil {
		logger.Warn("快照存储不可用，禁用持久化", zap.Error(err))
		snapshots = nil
	} else {
		defer snapshots.Close()
	}

	// 组装同步核心
	bus := event.NewBus()
	src := source.Select(cfg.Source, nil, logger)
	logger.Info("data source selected", zap.String("source", src.Name()))

	svc := syncsvc.New(src, ruleSet, bus, snapshots, logger)
	svc.WarmStart()

	agg := dashboard.New(svc, ruleSet, cfg.Sync.RecentWindowDays)

	exportDir := filepath.Join(dataPath, "exports")
	exporter := export.NewExporter(exportDir, ruleSet)

	// 启动定时刷新
	if cfg.Sync.RefreshIntervalMs > 0 {
		svc.StartAutoRefresh(time.Duration(cfg.Sync.RefreshIntervalMs) * time.Millisecond)
	}

	// 创建服务器
	srv := server.NewServer(server.Options{
		Service:    svc,
		Aggregator: agg,
		Exporter:   exporter,
		Bus:        bus,
		ExportDir:  exportDir,
		DevMode:    cfg.Server.DevMode,
		Logger:     logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// 启动服务器
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	svc.StopAutoRefresh()
}

// newLogger 按运行模式创建日志器
func newLogger(devMode bool) (*zap.Logger, error) {
	if devMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
