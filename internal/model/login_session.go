// Package model 定义数据库实体模型
// 本文件定义登录会话模型，一次登录对应一条会话记录
package model

import (
	"time"

	"gorm.io/gorm"
)

// LoginSession 登录会话模型
// 对应数据库 login_session 表
// 同一用户允许多个并发会话，每个会话可独立吊销
type LoginSession struct {
	gorm.Model

	// Uuid 会话唯一标识
	// 32 字节 crypto/rand 随机数的 hex 编码（64 字符），
	// 永远由服务端生成，不接受调用方提供，防止会话固定攻击
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(64);not null;comment:会话随机id"`

	// UserId 会话所属用户 UUID
	UserId string `gorm:"column:user_id;index;type:char(20);not null;comment:用户uuid"`

	// DeviceFingerprint 设备指纹
	// sha256(userAgent + "|" + ip) 的 hex 编码，用于令牌设备绑定校验
	DeviceFingerprint string `gorm:"column:device_fingerprint;type:char(64);not null;comment:设备指纹"`

	// IpAddress 登录来源 IP
	IpAddress string `gorm:"column:ip_address;type:varchar(45);not null;comment:登录IP"`

	// TokenJti 本会话签发的访问令牌 jti
	// 吊销会话时顺带把对应 jti 写入吊销集合
	TokenJti string `gorm:"column:token_jti;type:char(36);not null;comment:令牌jti"`

	// ExpiresAt 会话过期时间，创建时间 + 最长有效期（上限 24 小时）
	ExpiresAt time.Time `gorm:"column:expires_at;type:datetime;not null;comment:过期时间"`

	// IsActive 会话是否有效，吊销后置为 false
	IsActive bool `gorm:"column:is_active;not null;default:1;index;comment:是否有效"`
}

// TableName 指定表名
func (LoginSession) TableName() string {
	return "login_session"
}

// Expired 判断会话是否已过期
func (s *LoginSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
