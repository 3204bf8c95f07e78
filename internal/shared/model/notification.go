package model

import "time"

// NotificationType 通知类型（封闭枚举）
type NotificationType string

const (
	NotificationNewPost        NotificationType = "new_post"
	NotificationComment        NotificationType = "comment"
	NotificationFollow         NotificationType = "follow"
	NotificationPaymentSuccess NotificationType = "payment_success"
	NotificationAdminMessage   NotificationType = "admin_message"
)

// Valid 通知类型是否合法
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewPost, NotificationComment, NotificationFollow,
		NotificationPaymentSuccess, NotificationAdminMessage:
		return true
	}
	return false
}

// Notification 用户可见通知
//
// 由支付结算或社交事件触发创建；只有接收者本人可以标记已读或删除。
type Notification struct {
	ID        string           `json:"id" bson:"_id"`
	UserID    string           `json:"user_id" bson:"user_id"`
	SenderID  string           `json:"sender_id,omitempty" bson:"sender_id,omitempty"`
	Type      NotificationType `json:"type" bson:"type"`
	Message   string           `json:"message" bson:"message"`
	Link      string           `json:"link,omitempty" bson:"link,omitempty"`
	Read      bool             `json:"read" bson:"read"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}

// NotificationQuery 通知列表查询参数
type NotificationQuery struct {
	Read  *bool
	Page  int
	Limit int
}

// Normalize 修正分页参数到合法范围
func (q *NotificationQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
}
