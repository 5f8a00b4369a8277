package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 全量配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Escrow    EscrowConfig    `mapstructure:"escrow"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// EscrowConfig 托管策略配置
type EscrowConfig struct {
	ServiceFee       float64 `mapstructure:"service_fee"`
	AutoReleaseHours int     `mapstructure:"auto_release_hours"`
	ReleaseCron      string  `mapstructure:"release_cron"`
	ReleaseBatchSize int     `mapstructure:"release_batch_size"`
}

// AutoReleaseWindow 终审阶段自动放款窗口
func (c EscrowConfig) AutoReleaseWindow() time.Duration {
	return time.Duration(c.AutoReleaseHours) * time.Hour
}

// PaymentConfig 支付通道配置
type PaymentConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RetryCount     int    `mapstructure:"retry_count"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	TransitionCooldownSeconds int `mapstructure:"transition_cooldown_seconds"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// ==================== 加载 ====================

// Load 读取配置：config.yaml + TRUSTMART_ 前缀环境变量覆盖
// 文件缺失不报错，全走默认值，容器环境只给环境变量即可
func Load(path string) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("TRUSTMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("配置文件读取失败: %v", err)
		}
		log.Println("未找到配置文件，使用默认值 + 环境变量")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("配置解析失败: %v", err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.dsn",
		"host=localhost user=trustmart password=trustmart dbname=trustmart port=5432 sslmode=disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)

	v.SetDefault("escrow.service_fee", 2.50)
	v.SetDefault("escrow.auto_release_hours", 72)
	v.SetDefault("escrow.release_cron", "0 */10 * * * *")
	v.SetDefault("escrow.release_batch_size", 100)

	v.SetDefault("payment.enabled", false)
	v.SetDefault("payment.timeout_seconds", 10)
	v.SetDefault("payment.retry_count", 3)

	v.SetDefault("rate_limit.transition_cooldown_seconds", 1)

	v.SetDefault("auth.jwt_secret", "trustmart-secret-key-change-in-production")
	v.SetDefault("auth.issuer", "trustmart")
}
