// Package security 提供消息核心的安全能力
// 本文件集中角色能力判断，各操作统一调用，不在端点里散落角色比较
package security

import (
	"edumsg_server/internal/model"
)

// CanMessage 判断两种角色之间是否允许建立对话
// 规则：师生之间允许；同角色之间拒绝；管理员可与任何角色对话
func CanMessage(roleA, roleB string) bool {
	if roleA == model.RoleAdmin || roleB == model.RoleAdmin {
		return true
	}
	return (roleA == model.RoleStudent && roleB == model.RoleInstructor) ||
		(roleA == model.RoleInstructor && roleB == model.RoleStudent)
}

// CanAccessAttachment 判断用户能否访问某会话下的附件
// 只有会话参与者可以访问
func CanAccessAttachment(userId string, conversation *model.Conversation) bool {
	if conversation == nil {
		return false
	}
	return conversation.HasParticipant(userId)
}
