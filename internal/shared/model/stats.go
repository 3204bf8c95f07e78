package model

// MonthlyRevenue 按月汇总的成功支付金额
type MonthlyRevenue struct {
	Year   int     `json:"year"`
	Month  string  `json:"month"` // "Jan".."Dec"
	Amount float64 `json:"amount"`
}

// OverallStats 全站统计汇总（只读 rollup）
type OverallStats struct {
	TotalUsers        int64            `json:"total_users"`
	TotalAdmins       int64            `json:"total_admins"`
	TotalPosts        int64            `json:"total_posts"`
	TotalPremiumPosts int64            `json:"total_premium_posts"`
	TotalUpvotes      int64            `json:"total_upvotes"`
	TotalDownvotes    int64            `json:"total_downvotes"`
	TotalViews        int64            `json:"total_views"`
	TotalComments     int64            `json:"total_comments"`
	TotalRevenue      float64          `json:"total_revenue"`
	MonthlyRevenue    []MonthlyRevenue `json:"monthly_revenue"`
}
