package mongostore

import (
	"context"
	"time"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListUsers(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	filter := bson.D{}
	if role != "" {
		filter = bson.D{{Key: "role", Value: role}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	users, err := findMany[model.User](ctx, s.col(ColUsers), filter, opts)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) ListUserSummaries(ctx context.Context, ids []string) ([]model.UserSummary, error) {
	if len(ids) == 0 {
		return []model.UserSummary{}, nil
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	users, err := findMany[model.UserSummary](ctx, s.col(ColUsers), filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, *u)
	}
	return summaries, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd model.UserProfileUpdate) (*model.User, error) {
	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *upd.Email})
	}
	if upd.Image != nil {
		set = append(set, bson.E{Key: "image", Value: *upd.Image})
	}
	if upd.CoverImage != nil {
		set = append(set, bson.E{Key: "cover_image", Value: *upd.CoverImage})
	}

	// 邮箱唯一索引兜底；重复时 FindOneAndUpdate 报 duplicate key
	return findOneAndUpdate[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}})
}

func (s *Store) SetUserBlocked(ctx context.Context, id string, blocked bool) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "is_blocked", Value: blocked},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) SetUserMembership(ctx context.Context, id string, m *model.Membership) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "membership", Value: m},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	// 硬删除，不级联帖子/评论
	return deleteByID(ctx, s.col(ColUsers), id)
}

// ============================================================================
// 成对边写入（关注/取关）
// ============================================================================

// FollowUser 在一个多文档事务内写入两条对称边。
//
// 两条 UpdateOne 均带守卫过滤器（$ne / 数组成员）：
//   - 匹配数为 0 说明用户不存在或边已存在，区分后返回领域错误并回滚事务，
//     保证不会留下单向边。
func (s *Store) FollowUser(ctx context.Context, actorID, targetID string) error {
	return s.withEdgeTxn(ctx, func(ctx context.Context) error {
		// target.followers += actor（仅当 actor 不在集合中）
		res, err := s.col(ColUsers).UpdateOne(ctx,
			bson.D{
				{Key: "_id", Value: targetID},
				{Key: "followers", Value: bson.D{{Key: "$ne", Value: actorID}}},
			},
			bson.D{{Key: "$addToSet", Value: bson.D{{Key: "followers", Value: actorID}}}})
		if err != nil {
			return wrapError(err)
		}
		if res.MatchedCount == 0 {
			return s.edgeFailure(ctx, targetID)
		}

		// actor.following += target（仅当 target 不在集合中）
		res, err = s.col(ColUsers).UpdateOne(ctx,
			bson.D{
				{Key: "_id", Value: actorID},
				{Key: "following", Value: bson.D{{Key: "$ne", Value: targetID}}},
			},
			bson.D{{Key: "$addToSet", Value: bson.D{{Key: "following", Value: targetID}}}})
		if err != nil {
			return wrapError(err)
		}
		if res.MatchedCount == 0 {
			return s.edgeFailure(ctx, actorID)
		}
		return nil
	})
}

// UnfollowUser 在一个多文档事务内删除两条对称边，语义与 FollowUser 对称。
func (s *Store) UnfollowUser(ctx context.Context, actorID, targetID string) error {
	return s.withEdgeTxn(ctx, func(ctx context.Context) error {
		// target.followers -= actor（仅当边存在）
		res, err := s.col(ColUsers).UpdateOne(ctx,
			bson.D{
				{Key: "_id", Value: targetID},
				{Key: "followers", Value: actorID},
			},
			bson.D{{Key: "$pull", Value: bson.D{{Key: "followers", Value: actorID}}}})
		if err != nil {
			return wrapError(err)
		}
		if res.MatchedCount == 0 {
			return s.edgeFailure(ctx, targetID)
		}

		res, err = s.col(ColUsers).UpdateOne(ctx,
			bson.D{
				{Key: "_id", Value: actorID},
				{Key: "following", Value: targetID},
			},
			bson.D{{Key: "$pull", Value: bson.D{{Key: "following", Value: targetID}}}})
		if err != nil {
			return wrapError(err)
		}
		if res.MatchedCount == 0 {
			return s.edgeFailure(ctx, actorID)
		}
		return nil
	})
}

// withEdgeTxn 在 session 事务中执行 fn；fn 返回错误时事务整体回滚
func (s *Store) withEdgeTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// edgeFailure 区分"用户不存在"与"边状态冲突"
func (s *Store) edgeFailure(ctx context.Context, userID string) error {
	n, err := s.col(ColUsers).CountDocuments(ctx, bson.D{{Key: "_id", Value: userID}})
	if err != nil {
		return wrapError(err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}
