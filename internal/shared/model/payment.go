package model

import "time"

// PaymentStatus 支付状态
//
// 状态机单向：pending → succeeded | failed | cancelled。
// 离开 pending 后记录不可再变更（webhook 重复投递时必须幂等）。
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Terminal 状态是否已终结（非 pending）
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending && s != ""
}

// Payment 支付意向记录
//
// 在调用网关之前先落库（pending），保证外呼失败时仍有可审计记录。
type Payment struct {
	ID              string            `json:"id" bson:"_id"`
	UserID          string            `json:"user_id" bson:"user_id"`
	Package         PackageName       `json:"package" bson:"package"`
	Amount          float64           `json:"amount" bson:"amount"`
	Currency        string            `json:"currency" bson:"currency"`
	TransactionID   string            `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	Status          PaymentStatus     `json:"status" bson:"status"`
	GatewayResponse map[string]string `json:"gateway_response,omitempty" bson:"gateway_response,omitempty"`
	PaidAt          *time.Time        `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	ExpiresAt       *time.Time        `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

// PaymentSettlement 对账写入内容，仅当记录仍为 pending 时生效
type PaymentSettlement struct {
	Status          PaymentStatus
	TransactionID   string
	GatewayResponse map[string]string
	PaidAt          *time.Time
	ExpiresAt       *time.Time
}

// MembershipDuration 套餐对应的会员时长（月）
//
// 策略写死：顶级套餐 12 个月，其余 1 个月。不可配置。
func MembershipDuration(p PackageName) int {
	if p == PackagePremium {
		return 12
	}
	return 1
}
