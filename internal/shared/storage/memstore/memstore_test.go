package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

func seedUser(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.CreateUser(context.Background(), &model.User{
		ID: id, Name: id, Email: id + "@example.com",
		Role: model.UserRoleUser, Followers: []string{}, Following: []string{},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func TestFollowRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "user-a")
	seedUser(t, s, "user-b")

	if err := s.FollowUser(ctx, "user-a", "user-b"); err != nil {
		t.Fatalf("FollowUser: %v", err)
	}
	if err := s.UnfollowUser(ctx, "user-a", "user-b"); err != nil {
		t.Fatalf("UnfollowUser: %v", err)
	}

	a, _ := s.GetUserByID(ctx, "user-a")
	b, _ := s.GetUserByID(ctx, "user-b")
	if len(a.Following) != 0 || len(b.Followers) != 0 {
		t.Errorf("round trip left edges: following=%v followers=%v", a.Following, b.Followers)
	}

	if err := s.UnfollowUser(ctx, "user-a", "user-b"); err != storage.ErrConflict {
		t.Errorf("UnfollowUser(absent) = %v, want ErrConflict", err)
	}
}

func TestConcurrentFollow(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "user-a")
	seedUser(t, s, "user-b")

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.FollowUser(ctx, "user-a", "user-b")
		}(i)
	}
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range errs {
		switch err {
		case nil:
			succeeded++
		case storage.ErrConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicts != n-1 {
		t.Errorf("succeeded=%d conflicts=%d, want 1 and %d", succeeded, conflicts, n-1)
	}

	b, _ := s.GetUserByID(ctx, "user-b")
	if len(b.Followers) != 1 {
		t.Errorf("followers = %v, want single entry", b.Followers)
	}
}

func TestSettleOnceOnly(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	s.CreatePayment(ctx, &model.Payment{
		ID: "pay-1", UserID: "user-a", Package: model.PackageBasic,
		Amount: 500, Currency: "BDT", Status: model.PaymentStatusPending,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})

	paidAt := time.Now()
	expiresAt := paidAt.AddDate(0, 1, 0)
	_, applied, err := s.SettlePayment(ctx, "pay-1", model.PaymentSettlement{
		Status: model.PaymentStatusSucceeded, PaidAt: &paidAt, ExpiresAt: &expiresAt,
	})
	if err != nil || !applied {
		t.Fatalf("first settle: applied=%v err=%v", applied, err)
	}

	got, applied, err := s.SettlePayment(ctx, "pay-1", model.PaymentSettlement{
		Status: model.PaymentStatusCancelled,
	})
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if applied || got.Status != model.PaymentStatusSucceeded {
		t.Errorf("replay mutated record: applied=%v status=%q", applied, got.Status)
	}
}

func TestUnfollowKeepsOtherEdges(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "user-a")
	for _, id := range []string{"user-b", "user-c", "user-d"} {
		seedUser(t, s, id)
		if err := s.FollowUser(ctx, "user-a", id); err != nil {
			t.Fatalf("FollowUser(%s): %v", id, err)
		}
	}

	// 摘除中间一条边，其余两条保持原有顺序
	if err := s.UnfollowUser(ctx, "user-a", "user-c"); err != nil {
		t.Fatalf("UnfollowUser: %v", err)
	}

	a, _ := s.GetUserByID(ctx, "user-a")
	if len(a.Following) != 2 || a.Following[0] != "user-b" || a.Following[1] != "user-d" {
		t.Errorf("following = %v, want [user-b user-d]", a.Following)
	}
	c, _ := s.GetUserByID(ctx, "user-c")
	if len(c.Followers) != 0 {
		t.Errorf("user-c.followers = %v, want empty", c.Followers)
	}
}
