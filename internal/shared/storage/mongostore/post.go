package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// PostStore
// ============================================================================

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	return insertOne(ctx, s.col(ColPosts), post)
}

func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return findOne[model.Post](ctx, s.col(ColPosts), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListPosts(ctx context.Context, q model.PostQuery) ([]*model.Post, int64, error) {
	q.Normalize()

	filter := bson.D{}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	if q.UserID != "" {
		filter = append(filter, bson.E{Key: "user_id", Value: q.UserID})
	}
	if q.Premium != nil {
		filter = append(filter, bson.E{Key: "is_premium", Value: *q.Premium})
	}
	if q.Search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "content", Value: re}},
		}})
	}

	total, err := s.col(ColPosts).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	posts, err := findMany[model.Post](ctx, s.col(ColPosts), filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, upd model.PostUpdate) (*model.Post, error) {
	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if upd.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *upd.Title})
	}
	if upd.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *upd.Content})
	}
	if upd.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *upd.Category})
	}
	if upd.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: *upd.Tags})
	}
	if upd.Images != nil {
		set = append(set, bson.E{Key: "images", Value: *upd.Images})
	}
	if upd.IsPremium != nil {
		set = append(set, bson.E{Key: "is_premium", Value: *upd.IsPremium})
	}

	return findOneAndUpdate[model.Post](ctx, s.col(ColPosts),
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}})
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColPosts), id)
}

func (s *Store) IncrementViews(ctx context.Context, id string) error {
	res, err := s.col(ColPosts).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// VotePost 选定计数器 +1，随后仅在对侧计数器大于零时 -1。
// 两次守卫更新之间无事务；与原始实现的读-改-写一致，计数器不会为负。
func (s *Store) VotePost(ctx context.Context, id string, upvote bool) (*model.Post, error) {
	chosen, opposite := "upvotes", "downvotes"
	if !upvote {
		chosen, opposite = "downvotes", "upvotes"
	}

	post, err := findOneAndUpdate[model.Post](ctx, s.col(ColPosts),
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: chosen, Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
	if err != nil {
		return nil, err
	}

	// 对侧计数器归零守卫：仅当 > 0 时扣减
	dec, err := findOneAndUpdate[model.Post](ctx, s.col(ColPosts),
		bson.D{
			{Key: "_id", Value: id},
			{Key: opposite, Value: bson.D{{Key: "$gt", Value: 0}}},
		},
		bson.D{{Key: "$inc", Value: bson.D{{Key: opposite, Value: -1}}}})
	if errors.Is(err, storage.ErrNotFound) {
		return post, nil // 对侧本来就是 0
	}
	if err != nil {
		return nil, err
	}
	return dec, nil
}

// ============================================================================
// 内嵌评论（按评论 ID 定位）
// ============================================================================

func (s *Store) AddComment(ctx context.Context, postID string, c model.Comment) (*model.Post, error) {
	return findOneAndUpdate[model.Post](ctx, s.col(ColPosts),
		bson.D{{Key: "_id", Value: postID}},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "comments", Value: c}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
}

func (s *Store) UpdateComment(ctx context.Context, postID, commentID, text string) (*model.Post, error) {
	// 位置操作符 $ 指向过滤器命中的评论元素
	post, err := findOneAndUpdate[model.Post](ctx, s.col(ColPosts),
		bson.D{
			{Key: "_id", Value: postID},
			{Key: "comments._id", Value: commentID},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "comments.$.text", Value: text},
			{Key: "updated_at", Value: time.Now()},
		}}})
	if errors.Is(err, storage.ErrNotFound) {
		// 帖子存在但评论不存在也走到这里，统一报 not found；
		// 调用方在更新前已取过帖子做归属检查
		return nil, storage.ErrNotFound
	}
	return post, err
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) (*model.Post, error) {
	return findOneAndUpdate[model.Post](ctx, s.col(ColPosts),
		bson.D{
			{Key: "_id", Value: postID},
			{Key: "comments._id", Value: commentID},
		},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "comments", Value: bson.D{{Key: "_id", Value: commentID}}}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
}
