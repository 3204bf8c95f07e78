package mongostore

import (
	"context"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// NotificationStore
// ============================================================================

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return insertOne(ctx, s.col(ColNotifications), n)
}

func (s *Store) ListNotifications(ctx context.Context, userID string, q model.NotificationQuery) ([]*model.Notification, error) {
	q.Normalize()

	filter := bson.D{{Key: "user_id", Value: userID}}
	if q.Read != nil {
		filter = append(filter, bson.E{Key: "read", Value: *q.Read})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	return findMany[model.Notification](ctx, s.col(ColNotifications), filter, opts)
}

// MarkNotificationRead 未读→已读条件写。
// 未命中时回读区分"已读"（ErrConflict，客户端可据此发现重复提交）
// 与"不存在/不属于该用户"（ErrNotFound）。
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	n, err := findOneAndUpdate[model.Notification](ctx, s.col(ColNotifications),
		bson.D{
			{Key: "_id", Value: id},
			{Key: "user_id", Value: userID},
			{Key: "read", Value: false},
		},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}})
	if err == nil {
		return n, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	existing, gerr := findOne[model.Notification](ctx, s.col(ColNotifications),
		bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}})
	if gerr != nil {
		return nil, gerr
	}
	if existing.Read {
		return nil, storage.ErrConflict
	}
	return nil, storage.ErrNotFound
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID string) error {
	res, err := s.col(ColNotifications).DeleteOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
