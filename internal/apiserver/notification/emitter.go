// Package notification 用户通知：事件发射与查询接口
package notification

import (
	"context"
	"log"
	"time"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// Emitter 通知发射器
//
// 通知是主流程的副产品：发射失败只记日志，绝不让关注/支付等
// 主操作因此失败。
type Emitter struct {
	store storage.NotificationStore
}

// NewEmitter 创建通知发射器
func NewEmitter(store storage.NotificationStore) *Emitter {
	return &Emitter{store: store}
}

// Emit 写入一条通知，失败只记录日志
func (e *Emitter) Emit(ctx context.Context, userID, senderID string, typ model.NotificationType, message, link string) {
	n := &model.Notification{
		ID:        model.NewID("ntf"),
		UserID:    userID,
		SenderID:  senderID,
		Type:      typ,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateNotification(ctx, n); err != nil {
		log.Printf("[notification] emit %s to %s failed: %v", typ, userID, err)
	}
}
