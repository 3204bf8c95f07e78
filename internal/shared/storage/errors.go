// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（mongostore/memstore）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrConflict 状态冲突（重复的状态迁移，如重复关注/重复标记已读）
	ErrConflict = errors.New("conflict: duplicate state transition")

	// ErrDuplicate 唯一键冲突（如邮箱已注册）
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
