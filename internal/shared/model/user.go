package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// PackageName 会员套餐名称
type PackageName string

const (
	PackageBasic    PackageName = "basic"
	PackageStandard PackageName = "standard"
	PackagePremium  PackageName = "premium"
)

// Valid 套餐名称是否合法
func (p PackageName) Valid() bool {
	switch p {
	case PackageBasic, PackageStandard, PackagePremium:
		return true
	}
	return false
}

// MembershipPackage 会员套餐快照（名称 + 购买时价格）
type MembershipPackage struct {
	Name  PackageName `json:"name" bson:"name"`
	Price float64     `json:"price" bson:"price"`
}

// Membership 会员资格
//
// 仅由支付结算成功时整体覆盖写入，其余路径不得修改。
type Membership struct {
	TakenAt   time.Time         `json:"taken_at" bson:"taken_at"`
	ExpiresAt time.Time         `json:"expires_at" bson:"expires_at"`
	Package   MembershipPackage `json:"package" bson:"package"`
}

// Active 会员资格在 now 时刻是否有效（过期时间严格大于 now）
func (m *Membership) Active(now time.Time) bool {
	return m != nil && m.ExpiresAt.After(now)
}

// User 用户
//
// followers/following 为成对边：A follows B 时，
// B.followers 包含 A 且 A.following 包含 B，两者必须同时成立。
type User struct {
	ID           string      `json:"id" bson:"_id"`
	Name         string      `json:"name" bson:"name"`
	Email        string      `json:"email" bson:"email"`
	PasswordHash string      `json:"-" bson:"password_hash"` // never expose in JSON
	Role         UserRole    `json:"role" bson:"role"`
	Image        string      `json:"image,omitempty" bson:"image,omitempty"`
	CoverImage   string      `json:"cover_image,omitempty" bson:"cover_image,omitempty"`
	IsBlocked    bool        `json:"is_blocked" bson:"is_blocked"`
	Followers    []string    `json:"followers" bson:"followers"`
	Following    []string    `json:"following" bson:"following"`
	Membership   *Membership `json:"membership" bson:"membership"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}

// UserSummary 用户摘要（关注列表展开时使用）
type UserSummary struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Image string `json:"image,omitempty" bson:"image,omitempty"`
}

// UserProfile 用户档案响应：User 字段 + 展开后的关注摘要
type UserProfile struct {
	User      *User         `json:"user"`
	Followers []UserSummary `json:"followers"`
	Following []UserSummary `json:"following"`
}

// UserProfileUpdate 用户资料更新字段（nil 表示不修改）
type UserProfileUpdate struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Image      *string `json:"image"`
	CoverImage *string `json:"cover_image"`
}
