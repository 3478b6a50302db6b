package config

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	RateLimit       int           // 每个 IP 每分钟的计算请求数
	RateLimitWindow time.Duration // 限流窗口

	Workers             int    // 并行扫描位置的 goroutine 数
	DefaultTimeUnit     string // 请求未指定 timeunits 时使用
	MaxTrajectoryPoints int    // 单条轨迹的最大点数，0 表示不限制
}

// Load 加载配置
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/recursions.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	timeUnit := os.Getenv("DEFAULT_TIME_UNIT")
	if timeUnit == "" {
		timeUnit = "secs"
	}

	return &Config{
		Port:                port,
		DBPath:              dbPath,
		JWTSecret:           jwtSecret,
		RateLimit:           envInt("RATE_LIMIT", 60),
		RateLimitWindow:     time.Minute,
		Workers:             envInt("RECURSE_WORKERS", runtime.NumCPU()),
		DefaultTimeUnit:     timeUnit,
		MaxTrajectoryPoints: envInt("MAX_TRAJECTORY_POINTS", 1_000_000),
	}
}

// envInt 读取整数环境变量，无效值回退到默认值
func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("Invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}
