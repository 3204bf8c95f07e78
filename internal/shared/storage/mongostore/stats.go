package mongostore

import (
	"context"
	"sort"
	"time"

	"contenthub/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// StatsStore
// ============================================================================

// OverallStats 全站只读汇总：计数 + 聚合求和 + 月度营收 rollup
func (s *Store) OverallStats(ctx context.Context) (*model.OverallStats, error) {
	stats := &model.OverallStats{}

	var err error
	if stats.TotalUsers, err = s.col(ColUsers).CountDocuments(ctx, bson.D{}); err != nil {
		return nil, wrapError(err)
	}
	if stats.TotalAdmins, err = s.col(ColUsers).CountDocuments(ctx,
		bson.D{{Key: "role", Value: model.UserRoleAdmin}}); err != nil {
		return nil, wrapError(err)
	}
	if stats.TotalPosts, err = s.col(ColPosts).CountDocuments(ctx, bson.D{}); err != nil {
		return nil, wrapError(err)
	}
	if stats.TotalPremiumPosts, err = s.col(ColPosts).CountDocuments(ctx,
		bson.D{{Key: "is_premium", Value: true}}); err != nil {
		return nil, wrapError(err)
	}

	if err := s.sumPostCounters(ctx, stats); err != nil {
		return nil, err
	}

	if err := s.sumRevenue(ctx, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

// sumPostCounters 聚合帖子计数器与评论总数
func (s *Store) sumPostCounters(ctx context.Context, stats *model.OverallStats) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "upvotes", Value: bson.D{{Key: "$sum", Value: "$upvotes"}}},
			{Key: "downvotes", Value: bson.D{{Key: "$sum", Value: "$downvotes"}}},
			{Key: "views", Value: bson.D{{Key: "$sum", Value: "$views"}}},
			{Key: "comments", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$comments", bson.A{}}}}},
			}}}},
		}}},
	}

	cursor, err := s.col(ColPosts).Aggregate(ctx, pipeline)
	if err != nil {
		return wrapError(err)
	}
	defer cursor.Close(ctx)

	var row struct {
		Upvotes   int64 `bson:"upvotes"`
		Downvotes int64 `bson:"downvotes"`
		Views     int64 `bson:"views"`
		Comments  int64 `bson:"comments"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return err
		}
		stats.TotalUpvotes = row.Upvotes
		stats.TotalDownvotes = row.Downvotes
		stats.TotalViews = row.Views
		stats.TotalComments = row.Comments
	}
	return cursor.Err()
}

// sumRevenue 成功支付的总营收与按月汇总
func (s *Store) sumRevenue(ctx context.Context, stats *model.OverallStats) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: model.PaymentStatusSucceeded}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "year", Value: bson.D{{Key: "$year", Value: "$paid_at"}}},
				{Key: "month", Value: bson.D{{Key: "$month", Value: "$paid_at"}}},
			}},
			{Key: "amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}

	cursor, err := s.col(ColPayments).Aggregate(ctx, pipeline)
	if err != nil {
		return wrapError(err)
	}
	defer cursor.Close(ctx)

	type key struct{ Year, Month int }
	var rows []struct {
		ID     key     `bson:"_id"`
		Amount float64 `bson:"amount"`
	}
	for cursor.Next(ctx) {
		var row struct {
			ID     key     `bson:"_id"`
			Amount float64 `bson:"amount"`
		}
		if err := cursor.Decode(&row); err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ID.Year != rows[j].ID.Year {
			return rows[i].ID.Year < rows[j].ID.Year
		}
		return rows[i].ID.Month < rows[j].ID.Month
	})

	monthly := make([]model.MonthlyRevenue, 0, len(rows))
	for _, row := range rows {
		stats.TotalRevenue += row.Amount
		monthly = append(monthly, model.MonthlyRevenue{
			Year:   row.ID.Year,
			Month:  time.Month(row.ID.Month).String()[:3],
			Amount: row.Amount,
		})
	}
	stats.MonthlyRevenue = monthly
	return nil
}
