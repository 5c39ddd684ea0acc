package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Port           string
	ServerURL      string // report命令访问的服务地址
	DataPath       string
	DatabaseURL    string
	CacheDir       string
	CacheTTL       time.Duration
	LogLevel       string
	LogFile        string
	TopCategories  int
	RateLimitRPS   float64
	RateLimitBurst int
	AnalyzeTimeout time.Duration
}

// fileConfig CONFIG_FILE 指向的YAML文件结构
type fileConfig struct {
	Port           string    `yaml:"port"`
	ServerURL      string    `yaml:"server_url"`
	DataPath       string    `yaml:"data_path"`
	DatabaseURL    string    `yaml:"database_url"`
	CacheDir       string    `yaml:"cache_dir"`
	CacheTTL       string    `yaml:"cache_ttl"`
	TopCategories  int       `yaml:"top_categories"`
	AnalyzeTimeout string    `yaml:"analyze_timeout"`
	Log            logFile   `yaml:"log"`
	RateLimit      rateLimit `yaml:"rate_limit"`
}

type logFile struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type rateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Port:           "8080",
		ServerURL:      "http://localhost:8080",
		DataPath:       "data/amazon.csv",
		CacheTTL:       time.Hour,
		LogLevel:       "info",
		TopCategories:  10,
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		AnalyzeTimeout: 30 * time.Second,
	}
}

// Load 默认值 <- CONFIG_FILE(YAML) <- 环境变量
func Load() (*Config, error) {
	cfg := Default()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.ServerURL = getEnv("SERVER_URL", cfg.ServerURL)
	cfg.DataPath = getEnv("DATA_PATH", cfg.DataPath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CacheDir = getEnv("CACHE_DIR", cfg.CacheDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.AnalyzeTimeout, err = getDuration("ANALYZE_TIMEOUT", cfg.AnalyzeTimeout); err != nil {
		return nil, err
	}
	if cfg.TopCategories, err = getInt("TOP_CATEGORIES", cfg.TopCategories); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return nil, err
	}
	if v := getEnv("RATE_LIMIT_RPS", ""); v != "" {
		if cfg.RateLimitRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
	}

	return cfg, nil
}

// applyFile 用YAML文件中非零的值覆盖当前配置
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.ServerURL, fc.ServerURL)
	setString(&c.DataPath, fc.DataPath)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	setString(&c.CacheDir, fc.CacheDir)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFile, fc.Log.File)
	if fc.TopCategories > 0 {
		c.TopCategories = fc.TopCategories
	}
	if fc.RateLimit.RPS > 0 {
		c.RateLimitRPS = fc.RateLimit.RPS
	}
	if fc.RateLimit.Burst > 0 {
		c.RateLimitBurst = fc.RateLimit.Burst
	}
	if fc.CacheTTL != "" {
		if c.CacheTTL, err = time.ParseDuration(fc.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl %q: %w", fc.CacheTTL, err)
		}
	}
	if fc.AnalyzeTimeout != "" {
		if c.AnalyzeTimeout, err = time.ParseDuration(fc.AnalyzeTimeout); err != nil {
			return fmt.Errorf("invalid analyze_timeout %q: %w", fc.AnalyzeTimeout, err)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
