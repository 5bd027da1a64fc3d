// Package model 定义数据库实体模型
// 本文件定义用户资料快照模型
// 资料主数据归外部资料服务所有，消息核心只消费 {uuid, role, full_name}
// 以及登录校验所需的密码哈希；本表是外部资料服务的本地适配表
package model

import (
	"gorm.io/gorm"
)

// 参与者角色
const (
	RoleStudent    = "student"    // 学生
	RoleInstructor = "instructor" // 教师
	RoleAdmin      = "admin"      // 管理员
)

// UserProfile 用户资料模型
// 对应数据库 user_profile 表
type UserProfile struct {
	gorm.Model

	// Uuid 用户唯一标识
	// 格式：U + 13位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:用户唯一id"`

	// FullName 用户姓名
	FullName string `gorm:"column:full_name;type:varchar(50);not null;comment:姓名"`

	// Email 邮箱地址，登录标识
	Email string `gorm:"column:email;uniqueIndex;type:varchar(100);not null;comment:邮箱"`

	// Role 角色：student / instructor / admin
	Role string `gorm:"column:role;type:char(12);not null;comment:角色"`

	// Password 密码（已哈希）
	// 存储 bcrypt 哈希后的密码，不存储明文
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码哈希" json:"-"`

	// Status 账号状态
	// 0=正常, 1=禁用
	Status int8 `gorm:"column:status;index;not null;comment:状态，0.正常，1.禁用"`
}

// TableName 指定表名
func (UserProfile) TableName() string {
	return "user_profile"
}

// ValidRole 判断角色取值是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}
