// Package memstore 提供 PersistentStore 的内存实现
//
// 仅用于测试：处理器与结算逻辑的单元测试不依赖真实 MongoDB。
// 语义（ErrNotFound/ErrConflict/ErrDuplicate、pending 守卫、成对边）
// 与 mongostore 保持一致。
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	posts         map[string]*model.Post
	payments      map[string]*model.Payment
	notifications map[string]*model.Notification
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		users:         make(map[string]*model.User),
		posts:         make(map[string]*model.Post),
		payments:      make(map[string]*model.Payment),
		notifications: make(map[string]*model.Notification),
	}
}

// Close 实现 PersistentStore
func (s *Store) Close() error { return nil }

var _ storage.PersistentStore = (*Store)(nil)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) ListUsers(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []*model.User{}
	for _, u := range s.users {
		if role != "" && u.Role != role {
			continue
		}
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (s *Store) ListUserSummaries(ctx context.Context, ids []string) ([]model.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := []model.UserSummary{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			summaries = append(summaries, model.UserSummary{
				ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image,
			})
		}
	}
	return summaries, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd model.UserProfileUpdate) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		for _, other := range s.users {
			if other.Email == *upd.Email {
				return nil, storage.ErrDuplicate
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Image != nil {
		u.Image = *upd.Image
	}
	if upd.CoverImage != nil {
		u.CoverImage = *upd.CoverImage
	}
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (s *Store) SetUserBlocked(ctx context.Context, id string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsBlocked = blocked
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetUserMembership(ctx context.Context, id string, m *model.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if m != nil {
		mc := *m
		u.Membership = &mc
	} else {
		u.Membership = nil
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) FollowUser(ctx context.Context, actorID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.users[actorID]
	if !ok {
		return storage.ErrNotFound
	}
	target, ok := s.users[targetID]
	if !ok {
		return storage.ErrNotFound
	}
	if contains(target.Followers, actorID) || contains(actor.Following, targetID) {
		return storage.ErrConflict
	}
	// 两条边在同一把锁内写入，等价于事务
	target.Followers = append(target.Followers, actorID)
	actor.Following = append(actor.Following, targetID)
	return nil
}

func (s *Store) UnfollowUser(ctx context.Context, actorID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.users[actorID]
	if !ok {
		return storage.ErrNotFound
	}
	target, ok := s.users[targetID]
	if !ok {
		return storage.ErrNotFound
	}
	if !contains(target.Followers, actorID) || !contains(actor.Following, targetID) {
		return storage.ErrConflict
	}
	target.Followers = remove(target.Followers, actorID)
	actor.Following = remove(actor.Following, targetID)
	return nil
}

// ============================================================================
// PostStore
// ============================================================================

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[post.ID]; ok {
		return storage.ErrDuplicate
	}
	s.posts[post.ID] = copyPost(post)
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyPost(p), nil
}

func (s *Store) ListPosts(ctx context.Context, q model.PostQuery) ([]*model.Post, int64, error) {
	q.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.Post{}
	for _, p := range s.posts {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.UserID != "" && p.UserID != q.UserID {
			continue
		}
		if q.Premium != nil && p.IsPremium != *q.Premium {
			continue
		}
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Content), needle) {
				continue
			}
		}
		matched = append(matched, copyPost(p))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start >= len(matched) {
		return []*model.Post{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, upd model.PostUpdate) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.Tags != nil {
		p.Tags = append([]string(nil), (*upd.Tags)...)
	}
	if upd.Images != nil {
		p.Images = append([]string(nil), (*upd.Images)...)
	}
	if upd.IsPremium != nil {
		p.IsPremium = *upd.IsPremium
	}
	p.UpdatedAt = time.Now()
	return copyPost(p), nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) IncrementViews(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Views++
	return nil
}

func (s *Store) VotePost(ctx context.Context, id string, upvote bool) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if upvote {
		p.Upvotes++
		if p.Downvotes > 0 {
			p.Downvotes--
		}
	} else {
		p.Downvotes++
		if p.Upvotes > 0 {
			p.Upvotes--
		}
	}
	p.UpdatedAt = time.Now()
	return copyPost(p), nil
}

func (s *Store) AddComment(ctx context.Context, postID string, c model.Comment) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = time.Now()
	return copyPost(p), nil
}

func (s *Store) UpdateComment(ctx context.Context, postID, commentID, text string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments[i].Text = text
			p.UpdatedAt = time.Now()
			return copyPost(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			p.UpdatedAt = time.Now()
			return copyPost(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

// ============================================================================
// PaymentStore
// ============================================================================

func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return storage.ErrDuplicate
	}
	s.payments[p.ID] = copyPayment(p)
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyPayment(p), nil
}

func (s *Store) SettlePayment(ctx context.Context, id string, set model.PaymentSettlement) (*model.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, false, storage.ErrNotFound
	}
	// pending 守卫：已终结的记录原样返回
	if p.Status.Terminal() {
		return copyPayment(p), false, nil
	}
	p.Status = set.Status
	if set.TransactionID != "" {
		p.TransactionID = set.TransactionID
	}
	if set.GatewayResponse != nil {
		p.GatewayResponse = set.GatewayResponse
	}
	p.PaidAt = set.PaidAt
	p.ExpiresAt = set.ExpiresAt
	p.UpdatedAt = time.Now()
	return copyPayment(p), true, nil
}

func (s *Store) ListPaymentsByUser(ctx context.Context, userID string) ([]*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := []*model.Payment{}
	for _, p := range s.payments {
		if p.UserID == userID {
			payments = append(payments, copyPayment(p))
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

// ============================================================================
// NotificationStore
// ============================================================================

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; ok {
		return storage.ErrDuplicate
	}
	nc := *n
	s.notifications[n.ID] = &nc
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, q model.NotificationQuery) ([]*model.Notification, error) {
	q.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.Notification{}
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if q.Read != nil && n.Read != *q.Read {
			continue
		}
		nc := *n
		matched = append(matched, &nc)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	start := (q.Page - 1) * q.Limit
	if start >= len(matched) {
		return []*model.Notification{}, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if n.Read {
		return nil, storage.ErrConflict
	}
	n.Read = true
	nc := *n
	return &nc, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

// ============================================================================
// StatsStore
// ============================================================================

func (s *Store) OverallStats(ctx context.Context) (*model.OverallStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.OverallStats{MonthlyRevenue: []model.MonthlyRevenue{}}
	for _, u := range s.users {
		stats.TotalUsers++
		if u.Role == model.UserRoleAdmin {
			stats.TotalAdmins++
		}
	}
	for _, p := range s.posts {
		stats.TotalPosts++
		if p.IsPremium {
			stats.TotalPremiumPosts++
		}
		stats.TotalUpvotes += p.Upvotes
		stats.TotalDownvotes += p.Downvotes
		stats.TotalViews += p.Views
		stats.TotalComments += int64(len(p.Comments))
	}

	type key struct {
		year  int
		month time.Month
	}
	monthly := map[key]float64{}
	for _, p := range s.payments {
		if p.Status != model.PaymentStatusSucceeded || p.PaidAt == nil {
			continue
		}
		stats.TotalRevenue += p.Amount
		monthly[key{p.PaidAt.Year(), p.PaidAt.Month()}] += p.Amount
	}
	keys := make([]key, 0, len(monthly))
	for k := range monthly {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	for _, k := range keys {
		stats.MonthlyRevenue = append(stats.MonthlyRevenue, model.MonthlyRevenue{
			Year: k.year, Month: k.month.String()[:3], Amount: monthly[k],
		})
	}
	return stats, nil
}

// ============================================================================
// 拷贝辅助（防止调用方修改内部状态）
// ============================================================================

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Followers = append([]string{}, u.Followers...)
	c.Following = append([]string{}, u.Following...)
	if u.Membership != nil {
		m := *u.Membership
		c.Membership = &m
	}
	return &c
}

func copyPost(p *model.Post) *model.Post {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	c.Images = append([]string(nil), p.Images...)
	c.Comments = append([]model.Comment{}, p.Comments...)
	return &c
}

func copyPayment(p *model.Payment) *model.Payment {
	c := *p
	if p.GatewayResponse != nil {
		c.GatewayResponse = make(map[string]string, len(p.GatewayResponse))
		for k, v := range p.GatewayResponse {
			c.GatewayResponse[k] = v
		}
	}
	return &c
}
