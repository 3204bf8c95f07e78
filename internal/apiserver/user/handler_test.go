package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contenthub/internal/apiserver/auth"
	"contenthub/internal/apiserver/notification"
	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage/memstore"
)

func newTestMux(store *memstore.Store) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(store, notification.NewEmitter(store)).RegisterRoutes(mux)
	return mux
}

func seedUser(t *testing.T, store *memstore.Store, name string, role model.UserRole) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:        model.NewID("user"),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		Role:      role,
		Followers: []string{},
		Following: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func asUser(r *http.Request, u *model.User) *http.Request {
	return r.WithContext(auth.WithAuthUser(r.Context(), &auth.AuthUser{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
	}))
}

func doFollow(t *testing.T, mux *http.ServeMux, actor *model.User, targetID, op string) *httptest.ResponseRecorder {
	t.Helper()
	body := strings.NewReader(`{"targetUserId":"` + targetID + `"}`)
	r := asUser(httptest.NewRequest("PATCH", "/api/v1/users/"+op, body), actor)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestFollowRoundTrip(t *testing.T) {
	store := memstore.NewStore()
	mux := newTestMux(store)
	alice := seedUser(t, store, "Alice", model.UserRoleUser)
	bob := seedUser(t, store, "Bob", model.UserRoleUser)

	w := doFollow(t, mux, alice, bob.ID, "follow")
	if w.Code != http.StatusOK {
		t.Fatalf("follow: status = %d, body %s", w.Code, w.Body.String())
	}

	// 成对边两侧都要成立
	freshAlice, _ := store.GetUserByID(context.Background(), alice.ID)
	freshBob, _ := store.GetUserByID(context.Background(), bob.ID)
	if len(freshAlice.Following) != 1 || freshAlice.Following[0] != bob.ID {
		t.Errorf("alice.following = %v", freshAlice.Following)
	}
	if len(freshBob.Followers) != 1 || freshBob.Followers[0] != alice.ID {
		t.Errorf("bob.followers = %v", freshBob.Followers)
	}

	// 关注通知发给目标用户
	ntfs, err := store.ListNotifications(context.Background(), bob.ID, model.NotificationQuery{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(ntfs) != 1 || ntfs[0].Type != model.NotificationFollow {
		t.Errorf("notifications = %+v", ntfs)
	}

	// 取消关注后两侧边都消失
	w = doFollow(t, mux, alice, bob.ID, "unfollow")
	if w.Code != http.StatusOK {
		t.Fatalf("unfollow: status = %d, body %s", w.Code, w.Body.String())
	}
	freshAlice, _ = store.GetUserByID(context.Background(), alice.ID)
	freshBob, _ = store.GetUserByID(context.Background(), bob.ID)
	if len(freshAlice.Following) != 0 || len(freshBob.Followers) != 0 {
		t.Errorf("edges remain: following=%v followers=%v", freshAlice.Following, freshBob.Followers)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	store := memstore.NewStore()
	mux := newTestMux(store)
	alice := seedUser(t, store, "Alice", model.UserRoleUser)

	w := doFollow(t, mux, alice, alice.ID, "follow")
	if w.Code != http.StatusBadRequest {
		t.Errorf("self-follow: status = %d, want 400", w.Code)
	}
	fresh, _ := store.GetUserByID(context.Background(), alice.ID)
	if len(fresh.Following) != 0 || len(fresh.Followers) != 0 {
		t.Errorf("self-follow mutated edges: %+v", fresh)
	}
}

func TestDuplicateFollowConflicts(t *testing.T) {
	store := memstore.NewStore()
	mux := newTestMux(store)
	alice := seedUser(t, store, "Alice", model.UserRoleUser)
	bob := seedUser(t, store, "Bob", model.UserRoleUser)

	if w := doFollow(t, mux, alice, bob.ID, "follow"); w.Code != http.StatusOK {
		t.Fatalf("first follow: status = %d", w.Code)
	}
	if w := doFollow(t, mux, alice, bob.ID, "follow"); w.Code != http.StatusConflict {
		t.Errorf("duplicate follow: status = %d, want 409", w.Code)
	}
	if w := doFollow(t, mux, alice, "user-missing", "follow"); w.Code != http.StatusNotFound {
		t.Errorf("follow missing user: status = %d, want 404", w.Code)
	}
	if w := doFollow(t, mux, bob, alice.ID, "unfollow"); w.Code != http.StatusConflict {
		t.Errorf("absent unfollow: status = %d, want 409", w.Code)
	}
}

func TestProfileByEmail(t *testing.T) {
	store := memstore.NewStore()
	mux := newTestMux(store)
	alice := seedUser(t, store, "Alice", model.UserRoleUser)
	bob := seedUser(t, store, "Bob", model.UserRoleUser)

	if w := doFollow(t, mux, alice, bob.ID, "follow"); w.Code != http.StatusOK {
		t.Fatalf("follow: status = %d", w.Code)
	}

	r := asUser(httptest.NewRequest("GET", "/api/v1/users/"+bob.Email, nil), alice)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data model.UserProfile `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data.Followers) != 1 || resp.Data.Followers[0].ID != alice.ID {
		t.Errorf("followers = %+v, want alice summary", resp.Data.Followers)
	}
	if resp.Data.Followers[0].Name != "Alice" {
		t.Errorf("follower summary name = %q", resp.Data.Followers[0].Name)
	}
}

func TestUpdateMeDuplicateEmail(t *testing.T) {
	store := memstore.NewStore()
	mux := newTestMux(store)
	alice := seedUser(t, store, "Alice", model.UserRoleUser)
	bob := seedUser(t, store, "Bob", model.UserRoleUser)

	body := strings.NewReader(`{"email":"` + bob.Email + `"}`)
	r := asUser(httptest.NewRequest("PATCH", "/api/v1/users/me", body), alice)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", w.Code)
	}

	body = strings.NewReader(`{"name":"Alice Cooper"}`)
	r = asUser(httptest.NewRequest("PATCH", "/api/v1/users/me", body), alice)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("update name: status = %d, body %s", w.Code, w.Body.String())
	}
	fresh, _ := store.GetUserByID(context.Background(), alice.ID)
	if fresh.Name != "Alice Cooper" {
		t.Errorf("name = %q, want Alice Cooper", fresh.Name)
	}
}

func TestAdminGates(t *testing.T) {
	store := memstore.NewStore()
	mux := newTestMux(store)
	admin := seedUser(t, store, "Root", model.UserRoleAdmin)
	alice := seedUser(t, store, "Alice", model.UserRoleUser)

	// 普通用户不能列出用户
	r := asUser(httptest.NewRequest("GET", "/api/v1/users", nil), alice)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("list as user: status = %d, want 403", w.Code)
	}

	// 管理员封禁用户
	body := strings.NewReader(`{"blocked":true}`)
	r = asUser(httptest.NewRequest("PATCH", "/api/v1/users/"+alice.ID+"/block", body), admin)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("block: status = %d, body %s", w.Code, w.Body.String())
	}
	fresh, _ := store.GetUserByID(context.Background(), alice.ID)
	if !fresh.IsBlocked {
		t.Error("user not blocked")
	}

	// 管理员删除用户
	r = asUser(httptest.NewRequest("DELETE", "/api/v1/users/"+alice.ID, nil), admin)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	if _, err := store.GetUserByID(context.Background(), alice.ID); err == nil {
		t.Error("user still exists after delete")
	}
}
