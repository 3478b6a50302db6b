package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/recursions-backend-go/internal/config"
	"github.com/jengzang/recursions-backend-go/internal/handler"
	"github.com/jengzang/recursions-backend-go/internal/metrics"
	"github.com/jengzang/recursions-backend-go/internal/middleware"
	"github.com/jengzang/recursions-backend-go/internal/service"
)

// Deps 路由依赖的服务
type Deps struct {
	Trajectories *service.TrajectoryService
	Recursions   *service.RecursionService
	Tasks        *service.AnalysisTaskService
	Metrics      *metrics.Collector
	Limiter      *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger("/health", "/metrics"))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Recursions Backend API is running",
		})
	})

	// Prometheus 指标
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	trajectories := handler.NewTrajectoryHandler(deps.Trajectories)
	recursions := handler.NewRecursionHandler(deps.Recursions, cfg.DefaultTimeUnit)
	tasks := handler.NewAnalysisTaskHandler(deps.Tasks)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 轨迹数据集
		datasets := api.Group("/datasets")
		{
			datasets.POST("", trajectories.CreateDataset)
			datasets.GET("", trajectories.ListDatasets)
			datasets.GET("/:id", trajectories.GetDataset)
			datasets.POST("/:id/recursions", middleware.RateLimit(deps.Limiter), recursions.ComputeForDataset)
		}

		// 回访分析
		api.POST("/recursions", middleware.RateLimit(deps.Limiter), recursions.Compute)
		api.GET("/recursions/:runId", recursions.GetRun)
	}

	// 管理接口
	admin := r.Group("/api/admin", middleware.Auth(cfg.JWTSecret))
	{
		analysisTasks := admin.Group("/analysis/tasks")
		{
			analysisTasks.POST("", tasks.CreateTask)
			analysisTasks.GET("", tasks.ListTasks)
			analysisTasks.GET("/:id", tasks.GetTask)
			analysisTasks.DELETE("/:id", tasks.CancelTask)
		}
	}

	return r
}
