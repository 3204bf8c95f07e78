package mongostore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// testStore 创建测试用 Store，使用独立数据库避免污染
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	dbName := "contenthub_test"
	s, err := NewStore(uri, dbName)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	// 清空测试数据库
	ctx := context.Background()
	if err := s.db.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test database: %v", err)
	}
	// 重新创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close()
	})

	return s
}

// Compile-time interface check
var _ storage.PersistentStore = (*Store)(nil)

func newTestUser(id, email string) *model.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.User{
		ID:           id,
		Name:         "User " + id,
		Email:        email,
		PasswordHash: "x",
		Role:         model.UserRoleUser,
		Followers:    []string{},
		Following:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u := newTestUser("user-001", "alice@example.com")

	// Create
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Duplicate email
	dup := newTestUser("user-002", "alice@example.com")
	if err := s.CreateUser(ctx, dup); err != storage.ErrDuplicate {
		t.Errorf("CreateUser(dup email) error = %v, want ErrDuplicate", err)
	}

	// Get by email / id
	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-001" {
		t.Errorf("ID = %q, want user-001", got.ID)
	}
	if _, err := s.GetUserByID(ctx, "nonexistent"); err != storage.ErrNotFound {
		t.Errorf("GetUserByID(nonexistent) error = %v, want ErrNotFound", err)
	}

	// Membership overwrite
	m := &model.Membership{
		TakenAt:   time.Now(),
		ExpiresAt: time.Now().AddDate(0, 1, 0),
		Package:   model.MembershipPackage{Name: model.PackageBasic, Price: 500},
	}
	if err := s.SetUserMembership(ctx, "user-001", m); err != nil {
		t.Fatalf("SetUserMembership: %v", err)
	}
	got, _ = s.GetUserByID(ctx, "user-001")
	if got.Membership == nil || got.Membership.Package.Name != model.PackageBasic {
		t.Errorf("Membership = %+v, want basic package", got.Membership)
	}

	// Block + delete
	if err := s.SetUserBlocked(ctx, "user-001", true); err != nil {
		t.Fatalf("SetUserBlocked: %v", err)
	}
	if err := s.DeleteUser(ctx, "user-001"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := s.DeleteUser(ctx, "user-001"); err != storage.ErrNotFound {
		t.Errorf("DeleteUser(twice) error = %v, want ErrNotFound", err)
	}
}

func TestFollowUnfollow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := newTestUser("user-a", "a@example.com")
	b := newTestUser("user-b", "b@example.com")
	s.CreateUser(ctx, a)
	s.CreateUser(ctx, b)

	if err := s.FollowUser(ctx, "user-a", "user-b"); err != nil {
		// 单机 MongoDB 不支持多文档事务
		if strings.Contains(err.Error(), "Transaction") || strings.Contains(err.Error(), "replica") {
			t.Skipf("MongoDB transactions not supported: %v", err)
		}
		t.Fatalf("FollowUser: %v", err)
	}

	gotA, _ := s.GetUserByID(ctx, "user-a")
	gotB, _ := s.GetUserByID(ctx, "user-b")
	if len(gotA.Following) != 1 || gotA.Following[0] != "user-b" {
		t.Errorf("a.Following = %v, want [user-b]", gotA.Following)
	}
	if len(gotB.Followers) != 1 || gotB.Followers[0] != "user-a" {
		t.Errorf("b.Followers = %v, want [user-a]", gotB.Followers)
	}

	// Duplicate follow → conflict, no double entry
	if err := s.FollowUser(ctx, "user-a", "user-b"); err != storage.ErrConflict {
		t.Errorf("FollowUser(dup) error = %v, want ErrConflict", err)
	}
	gotB, _ = s.GetUserByID(ctx, "user-b")
	if len(gotB.Followers) != 1 {
		t.Errorf("b.Followers = %v, want single entry", gotB.Followers)
	}

	// Missing user → not found
	if err := s.FollowUser(ctx, "user-a", "ghost"); err != storage.ErrNotFound {
		t.Errorf("FollowUser(ghost) error = %v, want ErrNotFound", err)
	}

	// Round trip: unfollow restores pre-follow state
	if err := s.UnfollowUser(ctx, "user-a", "user-b"); err != nil {
		t.Fatalf("UnfollowUser: %v", err)
	}
	gotA, _ = s.GetUserByID(ctx, "user-a")
	gotB, _ = s.GetUserByID(ctx, "user-b")
	if len(gotA.Following) != 0 || len(gotB.Followers) != 0 {
		t.Errorf("edges not removed: following=%v followers=%v", gotA.Following, gotB.Followers)
	}

	// Absent unfollow → conflict
	if err := s.UnfollowUser(ctx, "user-a", "user-b"); err != storage.ErrConflict {
		t.Errorf("UnfollowUser(absent) error = %v, want ErrConflict", err)
	}
}

func TestSettlePaymentIdempotency(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	p := &model.Payment{
		ID:        "pay-001",
		UserID:    "user-001",
		Package:   model.PackageBasic,
		Amount:    500,
		Currency:  "BDT",
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreatePayment(ctx, p); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	paidAt := now
	expiresAt := now.AddDate(0, 1, 0)
	settled, applied, err := s.SettlePayment(ctx, "pay-001", model.PaymentSettlement{
		Status:          model.PaymentStatusSucceeded,
		TransactionID:   "txn_1_user-001",
		GatewayResponse: map[string]string{"pay_status": "Successful"},
		PaidAt:          &paidAt,
		ExpiresAt:       &expiresAt,
	})
	if err != nil {
		t.Fatalf("SettlePayment: %v", err)
	}
	if !applied {
		t.Fatal("first settlement should apply")
	}
	if settled.Status != model.PaymentStatusSucceeded {
		t.Errorf("Status = %q, want succeeded", settled.Status)
	}

	// Second settlement with a differing payload must be a no-op
	again, applied, err := s.SettlePayment(ctx, "pay-001", model.PaymentSettlement{
		Status: model.PaymentStatusFailed,
	})
	if err != nil {
		t.Fatalf("SettlePayment(again): %v", err)
	}
	if applied {
		t.Error("second settlement must not apply")
	}
	if again.Status != model.PaymentStatusSucceeded {
		t.Errorf("Status after replay = %q, want succeeded", again.Status)
	}

	// Unknown payment → not found
	if _, _, err := s.SettlePayment(ctx, "pay-missing", model.PaymentSettlement{
		Status: model.PaymentStatusFailed,
	}); err != storage.ErrNotFound {
		t.Errorf("SettlePayment(missing) error = %v, want ErrNotFound", err)
	}
}

func TestVoteAndViewCounters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	post := &model.Post{
		ID:        "post-001",
		UserID:    "user-001",
		Title:     "Hello",
		Content:   "World",
		Category:  model.CategoryWeb,
		Comments:  []model.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	// Upvote on zero counters: no negative downvotes
	got, err := s.VotePost(ctx, "post-001", true)
	if err != nil {
		t.Fatalf("VotePost: %v", err)
	}
	if got.Upvotes != 1 || got.Downvotes != 0 {
		t.Errorf("counters = (%d, %d), want (1, 0)", got.Upvotes, got.Downvotes)
	}

	// Switching vote decrements the opposite counter
	got, err = s.VotePost(ctx, "post-001", false)
	if err != nil {
		t.Fatalf("VotePost(down): %v", err)
	}
	if got.Upvotes != 0 || got.Downvotes != 1 {
		t.Errorf("counters = (%d, %d), want (0, 1)", got.Upvotes, got.Downvotes)
	}

	if err := s.IncrementViews(ctx, "post-001"); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	got, _ = s.GetPost(ctx, "post-001")
	if got.Views != 1 {
		t.Errorf("Views = %d, want 1", got.Views)
	}
}

func TestEmbeddedComments(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	s.CreatePost(ctx, &model.Post{
		ID: "post-001", UserID: "user-001", Title: "T", Content: "C",
		Category: model.CategoryAI, Comments: []model.Comment{}, CreatedAt: now, UpdatedAt: now,
	})

	post, err := s.AddComment(ctx, "post-001", model.Comment{
		ID: "cmt-001", UserID: "user-002", Text: "nice", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(post.Comments) != 1 || post.Comments[0].Text != "nice" {
		t.Errorf("Comments = %+v, want one comment", post.Comments)
	}

	post, err = s.UpdateComment(ctx, "post-001", "cmt-001", "edited")
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if post.Comments[0].Text != "edited" {
		t.Errorf("Text = %q, want edited", post.Comments[0].Text)
	}

	if _, err := s.UpdateComment(ctx, "post-001", "cmt-missing", "x"); err != storage.ErrNotFound {
		t.Errorf("UpdateComment(missing) error = %v, want ErrNotFound", err)
	}

	post, err = s.RemoveComment(ctx, "post-001", "cmt-001")
	if err != nil {
		t.Fatalf("RemoveComment: %v", err)
	}
	if len(post.Comments) != 0 {
		t.Errorf("Comments = %+v, want empty", post.Comments)
	}
}

func TestNotificationReadConflict(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n := &model.Notification{
		ID: "ntf-001", UserID: "user-001", Type: model.NotificationPaymentSuccess,
		Message: "ok", CreatedAt: time.Now(),
	}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	got, err := s.MarkNotificationRead(ctx, "ntf-001", "user-001")
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if !got.Read {
		t.Error("notification should be read")
	}

	if _, err := s.MarkNotificationRead(ctx, "ntf-001", "user-001"); err != storage.ErrConflict {
		t.Errorf("MarkNotificationRead(twice) error = %v, want ErrConflict", err)
	}
	if _, err := s.MarkNotificationRead(ctx, "ntf-001", "user-other"); err != storage.ErrNotFound {
		t.Errorf("MarkNotificationRead(wrong user) error = %v, want ErrNotFound", err)
	}
}

func TestOverallStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	s.CreateUser(ctx, newTestUser("user-1", "u1@example.com"))
	admin := newTestUser("user-2", "u2@example.com")
	admin.Role = model.UserRoleAdmin
	s.CreateUser(ctx, admin)

	s.CreatePost(ctx, &model.Post{
		ID: "post-1", UserID: "user-1", Title: "T", Content: "C",
		Category: model.CategoryWeb, IsPremium: true,
		Upvotes: 3, Downvotes: 1, Views: 10,
		Comments:  []model.Comment{{ID: "c1", UserID: "user-2", Text: "hi", CreatedAt: now}},
		CreatedAt: now, UpdatedAt: now,
	})

	paidAt := now
	s.CreatePayment(ctx, &model.Payment{
		ID: "pay-1", UserID: "user-1", Package: model.PackagePremium,
		Amount: 1500, Currency: "BDT", Status: model.PaymentStatusSucceeded,
		PaidAt: &paidAt, CreatedAt: now, UpdatedAt: now,
	})
	s.CreatePayment(ctx, &model.Payment{
		ID: "pay-2", UserID: "user-1", Package: model.PackageBasic,
		Amount: 500, Currency: "BDT", Status: model.PaymentStatusFailed,
		CreatedAt: now, UpdatedAt: now,
	})

	stats, err := s.OverallStats(ctx)
	if err != nil {
		t.Fatalf("OverallStats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalAdmins != 1 {
		t.Errorf("users = (%d, %d), want (2, 1)", stats.TotalUsers, stats.TotalAdmins)
	}
	if stats.TotalPosts != 1 || stats.TotalPremiumPosts != 1 {
		t.Errorf("posts = (%d, %d), want (1, 1)", stats.TotalPosts, stats.TotalPremiumPosts)
	}
	if stats.TotalUpvotes != 3 || stats.TotalDownvotes != 1 || stats.TotalViews != 10 || stats.TotalComments != 1 {
		t.Errorf("counters = (%d, %d, %d, %d)", stats.TotalUpvotes, stats.TotalDownvotes, stats.TotalViews, stats.TotalComments)
	}
	// 只统计 succeeded 的支付
	if stats.TotalRevenue != 1500 {
		t.Errorf("TotalRevenue = %v, want 1500", stats.TotalRevenue)
	}
	if len(stats.MonthlyRevenue) != 1 || stats.MonthlyRevenue[0].Amount != 1500 {
		t.Errorf("MonthlyRevenue = %+v", stats.MonthlyRevenue)
	}
}
