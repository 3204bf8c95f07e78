// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（JWT 密钥、网关签名密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	Gateway GatewayConfig `yaml:"gateway"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

// GatewayConfig 支付网关非敏感配置；凭据走环境变量
type GatewayConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	APIPort  string
	MongoURI string
	MongoDB  string
	RedisURL string

	JWTSecret      string
	AccessTokenTTL time.Duration

	// 支付网关；签名密钥绝不写入日志或响应
	AamarpayStoreID      string
	AamarpaySignatureKey string
	AamarpayBaseURL      string
	GatewayTimeout       time.Duration
	FrontendURL          string
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := ParseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:      env,
		APIPort:  getEnv("PORT", defaultStr(yamlCfg.Server.Port, "8080")),
		MongoURI: getEnv("MONGO_URI", defaultStr(yamlCfg.Mongo.URI, "mongodb://localhost:27017")),
		MongoDB:  getEnv("MONGO_DB", defaultStr(yamlCfg.Mongo.Database, "contenthub")),
		RedisURL: getEnv("REDIS_URL", yamlCfg.Redis.URL),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: 24 * time.Hour,

		AamarpayStoreID:      getEnv("AAMARPAY_STORE_ID", ""),
		AamarpaySignatureKey: getEnv("AAMARPAY_SIGNATURE_KEY", ""),
		AamarpayBaseURL:      getEnv("AAMARPAY_BASE_URL", defaultStr(yamlCfg.Gateway.BaseURL, "https://sandbox.aamarpay.com")),
		GatewayTimeout:       yamlCfg.Gateway.Timeout,
		FrontendURL:          getEnv("FRONTEND_URL", ""),
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}
	return cfg
}

// ParseEnv 解析环境名，未知值回落到 dev
func ParseEnv(s string) Environment {
	switch Environment(s) {
	case EnvProduction, EnvTest, EnvDevelopment:
		return Environment(s)
	}
	return EnvDevelopment
}

// String 打印配置概要（不含任何密钥）
func (c *Config) String() string {
	return fmt.Sprintf("env=%s port=%s mongo=%s/%s redis=%q gateway=%s",
		c.Env, c.APIPort, c.MongoURI, c.MongoDB, c.RedisURL, c.AamarpayBaseURL)
}

// loadYAMLConfig 加载 configs/{env}.yaml；找不到时返回零值配置
func loadYAMLConfig(env Environment) YAMLConfig {
	var cfg YAMLConfig
	for _, dir := range configPaths {
		path := filepath.Join(dir, string(env)+".yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
