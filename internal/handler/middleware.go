package handler

import (
	"strconv"
	"strings"
	"time"

	"healthloop/internal/infrastructure/metrics"
	"healthloop/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderAccountID = "X-Account-ID"
	ctxAccountID    = "account_id"
)

// LoggerMiddleware 访问日志
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		log.Info("request",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("account_id", c.GetString(ctxAccountID)),
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(500, response.Response{
					Code:    response.CodeServerError,
					Message: "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID, "+HeaderAccountID)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// MetricsMiddleware 按路由模板统计请求数与耗时
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// AuthMiddleware 从会话头读取账户ID，令牌校验由网关完成
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := strings.TrimSpace(c.GetHeader(HeaderAccountID))
		if accountID == "" {
			response.Unauthorized(c, "缺少 "+HeaderAccountID)
			return
		}
		c.Set(ctxAccountID, accountID)
		c.Next()
	}
}

func currentAccount(c *gin.Context) string {
	return c.GetString(ctxAccountID)
}
