package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"airdrop/internal/config"
	"airdrop/internal/distributor"
	apperrors "airdrop/internal/errors"
	"airdrop/internal/validation"
	"airdrop/pkg/models"
)

// Server API服务器
type Server struct {
	dist          *distributor.Distributor
	config        *config.Config
	validator     *validation.Validator
	logger        *logrus.Logger
	logManager    *LogManager
	configManager *ConfigManager
	server        *http.Server
	mu            sync.RWMutex
	startedAt     time.Time
}

// NewServer 创建新的API服务器
func NewServer(cfg *config.Config, dist *distributor.Distributor, logger *logrus.Logger) *Server {
	// 创建日志管理器
	logManager := NewLogManager(1000) // 最多保存1000条日志

	// 添加日志钩子
	logger.AddHook(NewLogHook(logManager))

	return &Server{
		dist:       dist,
		config:     cfg,
		validator:  validation.NewValidator(logger, true),
		logger:     logger,
		logManager: logManager,
		startedAt:  time.Now(),
	}
}

// SetConfigManager 挂载数据库配置管理器，须在Start之前调用
func (s *Server) SetConfigManager(cm *ConfigManager) {
	s.configManager = cm
}

// Start 启动API服务器
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// 添加CORS中间件
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Admin-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 添加中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// 设置路由
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:    s.config.API.ListenAddr,
		Handler: router,
	}

	s.logger.Infof("API服务器启动在 %s", s.config.API.ListenAddr)
	return s.server.ListenAndServe()
}

// Stop 停止API服务器
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(router *gin.Engine) {
	// 健康检查
	router.GET("/health", s.healthCheck)

	api := router.Group("/api/v1")
	{
		// 领取
		api.POST("/claim", s.claim)
		api.GET("/claims/:account", s.getClaim)

		// 查询
		api.GET("/root", s.getRoot)
		api.GET("/status", s.getStatus)

		// 日志管理
		api.GET("/logs", s.getLogs)
		api.DELETE("/logs", s.clearLogs)

		// 管理操作，外部权限由令牌校验承担
		admin := api.Group("/admin", s.adminAuth())
		{
			admin.POST("/root", s.setRoot)
			admin.POST("/sweep", s.sweep)
			admin.POST("/vest", s.startVest)

			// 数据库配置源可用时开放在线配置管理
			if s.configManager != nil {
				admin.GET("/config/:type", s.configManager.GetConfig)
				admin.PUT("/config/:type", s.configManager.UpdateConfig)
				admin.GET("/kafka/topics", s.configManager.GetKafkaTopics)
				admin.PUT("/kafka/topics/:id", s.configManager.UpdateKafkaTopic)
			}
		}
	}
}

// adminAuth 管理令牌校验中间件
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.config.API.AdminToken
		if token == "" || c.GetHeader("X-Admin-Token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "管理令牌无效"})
			return
		}
		c.Next()
	}
}

// healthCheck 健康检查
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "airdrop-api",
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// claim 处理领取请求
func (s *Server) claim(c *gin.Context) {
	var req models.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 先做格式校验，拿到结构化的失败原因
	result := s.validator.ValidateClaimRequest(&req)
	if !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "请求格式无效",
			"detail": result.Errors,
		})
		return
	}

	parsed, ok := req.Parse()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求解析失败"})
		return
	}

	receipt, err := s.dist.Claim(c.Request.Context(), parsed)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt":  receipt,
		"warnings": result.Warnings,
	})
}

// getClaim 查询账户的领取状态
func (s *Server) getClaim(c *gin.Context) {
	account := c.Param("account")
	if !common.IsHexAddress(account) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "账户地址格式无效"})
		return
	}

	record, err := s.dist.Store().GetClaimRecord(common.HexToAddress(account))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if record == nil {
		c.JSON(http.StatusOK, gin.H{
			"account": account,
			"claimed": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": record.Account,
		"claimed": true,
		"record":  record,
	})
}

// getRoot 查询当前承诺
func (s *Server) getRoot(c *gin.Context) {
	store := s.dist.Store()
	if !store.RootConfigured() {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configured": true,
		"root":       store.Root().Hex(),
	})
}

// getStatus 查询分发器状态
func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.dist.Status(c.Request.Context()))
}

// setRoot 配置承诺
func (s *Server) setRoot(c *gin.Context) {
	var req struct {
		Root string `json:"root"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if result := s.validator.ValidateRoot(req.Root); !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "承诺格式无效",
			"detail": result.Errors,
		})
		return
	}

	if err := s.dist.SetRoot(c.Request.Context(), common.HexToHash(req.Root)); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "承诺已配置",
		"root":    req.Root,
	})
}

// sweep 清扫分发池剩余份额
// 未指定destination时落入国库账户
func (s *Server) sweep(c *gin.Context) {
	var req struct {
		Destination string `json:"destination"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var destination common.Address
	if req.Destination != "" {
		if !common.IsHexAddress(req.Destination) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "清扫目标地址格式无效"})
			return
		}
		destination = common.HexToAddress(req.Destination)
	}

	event, err := s.dist.Sweep(c.Request.Context(), destination)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "清扫完成",
		"event":   event,
	})
}

// startVest 启动归属锁定
// 未指定lock_address时使用配置的锁定账户
func (s *Server) startVest(c *gin.Context) {
	var req struct {
		LockAddress string `json:"lock_address"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var lockAddress common.Address
	if req.LockAddress != "" {
		if !common.IsHexAddress(req.LockAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "锁定账户地址格式无效"})
			return
		}
		lockAddress = common.HexToAddress(req.LockAddress)
	}

	if err := s.dist.StartVest(c.Request.Context(), lockAddress); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "归属锁定已启动",
	})
}

// writeError 错误码到HTTP状态的映射
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	if airdropErr, ok := apperrors.AsAirdropError(err); ok {
		code = airdropErr.Code
		switch code {
		case "INVALID_PROOF":
			status = http.StatusUnprocessableEntity
		case "ALREADY_CLAIMED", "ALREADY_CONFIGURED", "VEST_ALREADY_STARTED", "PERIOD_NOT_ENDED":
			status = http.StatusConflict
		case "INSUFFICIENT_FEE":
			status = http.StatusPaymentRequired
		default:
			if airdropErr.Type == apperrors.ErrorTypeValidation {
				status = http.StatusBadRequest
			}
		}
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

// getLogs 获取日志
func (s *Server) getLogs(c *gin.Context) {
	level := c.Query("level")
	pageStr := c.Query("page")
	pageSizeStr := c.Query("pageSize")

	page := 1 // 默认第1页
	if pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	pageSize := 20 // 默认每页20条
	if pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 {
			pageSize = ps
		}
	}

	logs, total := s.logManager.GetLogsWithPagination(level, page, pageSize)

	c.JSON(http.StatusOK, gin.H{
		"logs":     logs,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"level":    level,
	})
}

// clearLogs 清空日志
func (s *Server) clearLogs(c *gin.Context) {
	s.logManager.ClearLogs()

	c.JSON(http.StatusOK, gin.H{
		"message": "日志已清空",
	})
}
