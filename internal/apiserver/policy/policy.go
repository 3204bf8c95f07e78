// Package policy 统一的资源访问判定
//
// 替代散落在各处理器里的 "is admin or owner" 判断，
// 入参只有 (操作者, 资源归属, 角色)，无任何存储依赖。
package policy

import "contenthub/internal/shared/model"

// CanModify 操作者是否可以修改某资源：本人或管理员
func CanModify(actorID string, actorRole model.UserRole, ownerID string) bool {
	return actorID == ownerID || actorRole == model.UserRoleAdmin
}

// IsOwner 仅限本人（如评论编辑、资料更新）
func IsOwner(actorID, ownerID string) bool {
	return actorID != "" && actorID == ownerID
}

// CanReadPremium 高级帖子可读性：作者本人、管理员、或会员未过期
func CanReadPremium(actorID string, actorRole model.UserRole, authorID string, membershipActive bool) bool {
	if CanModify(actorID, actorRole, authorID) {
		return true
	}
	return membershipActive
}
