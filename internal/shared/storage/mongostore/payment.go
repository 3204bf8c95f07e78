package mongostore

import (
	"context"
	"errors"
	"time"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// PaymentStore
// ============================================================================

func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	return insertOne(ctx, s.col(ColPayments), p)
}

func (s *Store) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return findOne[model.Payment](ctx, s.col(ColPayments), bson.D{{Key: "_id", Value: id}})
}

// SettlePayment 对账条件写。
//
// 过滤器带 status=pending 守卫：两次并发 webhook 投递中，先落盘的一方把状态
// 翻出 pending，后到的一方匹配不到文档，读回现状并报告 applied=false。
// 这是 pending 守卫（read-check-then-conditional-write）的原子版本。
func (s *Store) SettlePayment(ctx context.Context, id string, set model.PaymentSettlement) (*model.Payment, bool, error) {
	update := bson.D{
		{Key: "status", Value: set.Status},
		{Key: "updated_at", Value: time.Now()},
	}
	if set.TransactionID != "" {
		update = append(update, bson.E{Key: "transaction_id", Value: set.TransactionID})
	}
	if set.GatewayResponse != nil {
		update = append(update, bson.E{Key: "gateway_response", Value: set.GatewayResponse})
	}
	if set.PaidAt != nil {
		update = append(update, bson.E{Key: "paid_at", Value: set.PaidAt})
	}
	if set.ExpiresAt != nil {
		update = append(update, bson.E{Key: "expires_at", Value: set.ExpiresAt})
	}

	p, err := findOneAndUpdate[model.Payment](ctx, s.col(ColPayments),
		bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: model.PaymentStatusPending},
		},
		bson.D{{Key: "$set", Value: update}})
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	// 条件写未命中：记录不存在，或已离开 pending（幂等 no-op）
	existing, gerr := s.GetPayment(ctx, id)
	if gerr != nil {
		return nil, false, gerr
	}
	return existing, false, nil
}

func (s *Store) ListPaymentsByUser(ctx context.Context, userID string) ([]*model.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Payment](ctx, s.col(ColPayments),
		bson.D{{Key: "user_id", Value: userID}}, opts)
}
