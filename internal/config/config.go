// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port"`    // 服务器监听端口，如 8000
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	Issuer            string `toml:"issuer"`            // iss 声明，固定签发者
	Audience          string `toml:"audience"`          // aud 声明，固定受众
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Access Token 有效期（分钟）
}

// SecurityConfig 安全策略配置
// 限流阈值、编辑窗口、线程深度等策略值均放在配置中，避免把策略常量写死在代码里
type SecurityConfig struct {
	SessionMaxHours    int `toml:"sessionMaxHours"`    // 登录会话最长有效期（小时），上限 24
	EditWindowMinutes  int `toml:"editWindowMinutes"`  // 消息可编辑窗口（分钟）
	MaxThreadDepth     int `toml:"maxThreadDepth"`     // 消息嵌套回复最大深度
	MinSearchLength    int `toml:"minSearchLength"`    // 消息搜索最短查询长度
	LoginMaxPerWindow  int `toml:"loginMaxPerWindow"`  // 登录限流：窗口内最大次数（按 IP）
	ConvMaxPerWindow   int `toml:"convMaxPerWindow"`   // 创建会话限流：窗口内最大次数（按用户）
	MsgMaxPerWindow    int `toml:"msgMaxPerWindow"`    // 发送消息限流：窗口内最大次数（按用户）
	UploadMaxPerWindow int `toml:"uploadMaxPerWindow"` // 上传附件限流：窗口内最大次数（按用户）
	WindowSeconds      int `toml:"windowSeconds"`      // 限流窗口长度（秒）
}

// AttachmentConfig 附件存储配置
type AttachmentConfig struct {
	StoragePath      string   `toml:"storagePath"`      // 附件本地存储目录
	MaxSizeBytes     int64    `toml:"maxSizeBytes"`     // 附件最大大小（字节）
	AllowedExts      []string `toml:"allowedExts"`      // 允许的文件扩展名白名单
	SignedURLMinutes int      `toml:"signedURLMinutes"` // 签名下载 URL 有效期（分钟）
	UploadTimeoutSec int      `toml:"uploadTimeoutSec"` // 单次上传写入超时（秒）
	URLSecret        string   `toml:"urlSecret"`        // 签名 URL 令牌加密密钥
}

// KafkaConfig Kafka 消息队列配置
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode"` // 事件分发模式："channel" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	EventTopic  string        `toml:"eventTopic"`  // 实时事件主题
	Partition   int           `toml:"partition"`   // 分区数
	Timeout     time.Duration `toml:"timeout"`     // 超时时间
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023，分布式部署时每台机器需唯一
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig       `toml:"mainConfig"`       // 主配置
	MysqlConfig      `toml:"mysqlConfig"`      // MySQL 配置
	RedisConfig      `toml:"redisConfig"`      // Redis 配置
	LogConfig        `toml:"logConfig"`        // 日志配置
	JWTConfig        `toml:"jwtConfig"`        // JWT 配置
	SecurityConfig   `toml:"securityConfig"`   // 安全策略配置
	AttachmentConfig `toml:"attachmentConfig"` // 附件配置
	KafkaConfig      `toml:"kafkaConfig"`      // Kafka 配置
	SnowflakeConfig  `toml:"snowflakeConfig"`  // 雪花算法配置
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() error {
	if config == nil {
		config = new(Config)
	}

	// 候选配置文件路径（优先加载本地配置）
	paths := []string{
		"configs/config_local.toml",       // 本地开发配置（优先）
		"configs/config.toml",             // 默认配置
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",       // 从子目录运行时的路径
	}

	// 依次尝试加载配置文件
	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			applyDefaults(config)
			return nil
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// applyDefaults 填充未配置项的默认策略值
// 编辑窗口与线程深度的具体数值属于策略而非契约，默认值可被配置覆盖
func applyDefaults(c *Config) {
	if c.SecurityConfig.SessionMaxHours <= 0 || c.SecurityConfig.SessionMaxHours > 24 {
		c.SecurityConfig.SessionMaxHours = 24
	}
	if c.SecurityConfig.EditWindowMinutes <= 0 {
		c.SecurityConfig.EditWindowMinutes = 15
	}
	if c.SecurityConfig.MaxThreadDepth <= 0 {
		c.SecurityConfig.MaxThreadDepth = 5
	}
	if c.SecurityConfig.MinSearchLength <= 0 {
		c.SecurityConfig.MinSearchLength = 2
	}
	if c.SecurityConfig.WindowSeconds <= 0 {
		c.SecurityConfig.WindowSeconds = 60
	}
	if c.SecurityConfig.LoginMaxPerWindow <= 0 {
		c.SecurityConfig.LoginMaxPerWindow = 5
	}
	if c.SecurityConfig.ConvMaxPerWindow <= 0 {
		c.SecurityConfig.ConvMaxPerWindow = 10
	}
	if c.SecurityConfig.MsgMaxPerWindow <= 0 {
		c.SecurityConfig.MsgMaxPerWindow = 60
	}
	if c.SecurityConfig.UploadMaxPerWindow <= 0 {
		c.SecurityConfig.UploadMaxPerWindow = 20
	}
	if c.AttachmentConfig.MaxSizeBytes <= 0 {
		c.AttachmentConfig.MaxSizeBytes = 100 << 20
	}
	if c.AttachmentConfig.SignedURLMinutes <= 0 {
		c.AttachmentConfig.SignedURLMinutes = 10
	}
	if c.AttachmentConfig.UploadTimeoutSec <= 0 {
		c.AttachmentConfig.UploadTimeoutSec = 30
	}
	if len(c.AttachmentConfig.AllowedExts) == 0 {
		c.AttachmentConfig.AllowedExts = []string{
			".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
			".txt", ".md", ".png", ".jpg", ".jpeg", ".gif", ".zip",
		}
	}
	if c.JWTConfig.Issuer == "" {
		c.JWTConfig.Issuer = "edumsg"
	}
	if c.JWTConfig.Audience == "" {
		c.JWTConfig.Audience = "edumsg_client"
	}
	if c.JWTConfig.AccessTokenExpiry <= 0 {
		c.JWTConfig.AccessTokenExpiry = 60
	}
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		if err := LoadConfig(); err != nil {
			applyDefaults(config) // 加载失败时仍填充默认策略值
		}
	}
	return config
}
