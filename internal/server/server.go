package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stockboard/internal/dashboard"
	"stockboard/internal/event"
	"stockboard/internal/export"
	"stockboard/internal/syncsvc"
)

// Server HTTP 服务器
// 表现层入口：把同步核心的操作暴露给前端看板，本身不包含业务逻辑。
type Server struct {
	router   *gin.Engine
	svc      *syncsvc.Service
	agg      *dashboard.Aggregator
	exporter *export.Exporter
	bus      *event.Bus
	logger   *zap.Logger
}

// Options 服务器依赖
type Options struct {
	Service    *syncsvc.Service
	Aggregator *dashboard.Aggregator
	Exporter   *export.Exporter
	Bus        *event.Bus
	ExportDir  string
	DevMode    bool
	Logger     *zap.Logger
}

// NewServer 创建服务器
func NewServer(opts Options) *Server {
	if !opts.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.Default(),
		svc:      opts.Service,
		agg:      opts.Aggregator,
		exporter: opts.Exporter,
		bus:      opts.Bus,
		logger:   opts.Logger,
	}

	s.setupRoutes(opts.ExportDir)

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(exportDir string) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	api := s.router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/sheets/:id", s.getSheet)
		api.POST("/refresh", s.refresh)
		api.GET("/dashboard", s.getDashboard)
		api.POST("/export", s.exportDashboard)
		api.GET("/events", s.getEvents)
	}

	// 导出文件下载
	if exportDir != "" {
		s.router.Static("/exports", exportDir)
	}

	// Prometheus 指标
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router 获取路由（用于测试）
func (s *Server) Router() http.Handler {
	return s.router
}
