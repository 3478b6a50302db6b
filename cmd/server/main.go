package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jengzang/recursions-backend-go/internal/analysis"
	"github.com/jengzang/recursions-backend-go/internal/api"
	"github.com/jengzang/recursions-backend-go/internal/config"
	"github.com/jengzang/recursions-backend-go/internal/database"
	"github.com/jengzang/recursions-backend-go/internal/metrics"
	"github.com/jengzang/recursions-backend-go/internal/middleware"
	"github.com/jengzang/recursions-backend-go/internal/repository"
	"github.com/jengzang/recursions-backend-go/internal/service"

	// Import analyzer packages to register them
	_ "github.com/jengzang/recursions-backend-go/internal/analysis/recursion"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	db := database.GetDB()

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("Failed to register metrics:", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	defer limiter.Stop()

	trajRepo := repository.NewTrajectoryRepository(db)
	tasks := service.NewAnalysisTaskService(repository.NewAnalysisTaskRepository(db), &analysis.Env{
		DB:        db,
		Metrics:   collector,
		Workers:   cfg.Workers,
		MaxPoints: cfg.MaxTrajectoryPoints,
	})

	// 初始化路由
	router := api.SetupRouter(cfg, api.Deps{
		Trajectories: service.NewTrajectoryService(trajRepo, cfg.MaxTrajectoryPoints),
		Recursions: service.NewRecursionService(trajRepo, repository.NewRecursionRepository(db),
			collector, cfg.Workers, cfg.MaxTrajectoryPoints),
		Tasks:   tasks,
		Metrics: collector,
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server starting on port %s (skills: %v)", cfg.Port, analysis.Skills())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	tasks.Wait()
}
