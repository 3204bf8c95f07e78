package model

import "time"

// PostCategory 帖子分类（封闭枚举）
type PostCategory string

const (
	CategoryWeb           PostCategory = "Web"
	CategorySoftwareEng   PostCategory = "Software Engineering"
	CategoryAI            PostCategory = "AI"
	CategoryMobile        PostCategory = "Mobile"
	CategoryCybersecurity PostCategory = "Cybersecurity"
	CategoryDataScience   PostCategory = "Data Science"
	CategoryOther         PostCategory = "Other"
)

// Valid 分类是否合法
func (c PostCategory) Valid() bool {
	switch c {
	case CategoryWeb, CategorySoftwareEng, CategoryAI, CategoryMobile,
		CategoryCybersecurity, CategoryDataScience, CategoryOther:
		return true
	}
	return false
}

// Comment 帖子内嵌评论，按自身 ID 定位更新/删除
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Post 帖子
//
// upvotes/downvotes 为全局计数器，不记录逐用户投票。
type Post struct {
	ID        string       `json:"id" bson:"_id"`
	UserID    string       `json:"user_id" bson:"user_id"`
	Title     string       `json:"title" bson:"title"`
	Content   string       `json:"content" bson:"content"`
	Category  PostCategory `json:"category" bson:"category"`
	Tags      []string     `json:"tags,omitempty" bson:"tags,omitempty"`
	Images    []string     `json:"images,omitempty" bson:"images,omitempty"`
	IsPremium bool         `json:"is_premium" bson:"is_premium"`
	Upvotes   int64        `json:"upvotes" bson:"upvotes"`
	Downvotes int64        `json:"downvotes" bson:"downvotes"`
	Views     int64        `json:"views" bson:"views"`
	Comments  []Comment    `json:"comments" bson:"comments"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at"`
}

// PostUpdate 帖子更新字段（nil 表示不修改）
type PostUpdate struct {
	Title     *string       `json:"title"`
	Content   *string       `json:"content"`
	Category  *PostCategory `json:"category"`
	Tags      *[]string     `json:"tags"`
	Images    *[]string     `json:"images"`
	IsPremium *bool         `json:"is_premium"`
}

// PostQuery 帖子列表查询参数
type PostQuery struct {
	Search   string
	Category PostCategory
	UserID   string
	Premium  *bool
	Page     int
	Limit    int
}

// Normalize 修正分页参数到合法范围
func (q *PostQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
}
