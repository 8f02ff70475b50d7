package handler

import (
	"healthloop/internal/config"
	"healthloop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter 配置路由
func SetupRouter(svcs *service.Services, cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware())
	r.Use(MetricsMiddleware())

	h := NewHandler(svcs, log)

	// API 路由组
	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", h.Register)
		api.GET("/points/actions", h.ListActions)
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/leaderboard", h.Leaderboard)

		authed := api.Group("", AuthMiddleware())
		{
			authed.GET("/account/balance", h.GetBalance)

			points := authed.Group("/points")
			{
				points.GET("/history", h.History)
				points.POST("/award", h.Award)
				points.POST("/consultation", h.GrantConsultation)
			}

			authed.GET("/leaderboard/me", h.MyRank)

			cart := authed.Group("/cart")
			{
				cart.GET("", h.GetCart)
				cart.POST("/add", h.AddToCart)
				cart.DELETE("/clear", h.ClearCart)
			}

			orders := authed.Group("/orders")
			{
				orders.POST("", h.Checkout)
				orders.GET("", h.ListOrders)
				orders.GET("/:order_no", h.GetOrder)
			}

			dashboard := authed.Group("/dashboard")
			{
				dashboard.GET("/client", h.ClientDashboard)
				dashboard.GET("/professional", h.ProfessionalDashboard)
			}
		}
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
