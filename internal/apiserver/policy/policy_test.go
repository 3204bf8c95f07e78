package policy

import (
	"testing"

	"contenthub/internal/shared/model"
)

func TestCanModify(t *testing.T) {
	tests := []struct {
		name    string
		actorID string
		role    model.UserRole
		ownerID string
		want    bool
	}{
		{"owner", "user-1", model.UserRoleUser, "user-1", true},
		{"admin not owner", "user-2", model.UserRoleAdmin, "user-1", true},
		{"stranger", "user-2", model.UserRoleUser, "user-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.actorID, tt.role, tt.ownerID); got != tt.want {
				t.Errorf("CanModify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanReadPremium(t *testing.T) {
	tests := []struct {
		name     string
		actorID  string
		role     model.UserRole
		authorID string
		active   bool
		want     bool
	}{
		{"author without membership", "user-1", model.UserRoleUser, "user-1", false, true},
		{"admin without membership", "user-2", model.UserRoleAdmin, "user-1", false, true},
		{"member", "user-3", model.UserRoleUser, "user-1", true, true},
		{"expired member", "user-3", model.UserRoleUser, "user-1", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReadPremium(tt.actorID, tt.role, tt.authorID, tt.active); got != tt.want {
				t.Errorf("CanReadPremium() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOwner(t *testing.T) {
	if IsOwner("", "") {
		t.Error("empty actor must never own anything")
	}
	if !IsOwner("user-1", "user-1") {
		t.Error("owner check failed")
	}
	if IsOwner("user-1", "user-2") {
		t.Error("stranger passed owner check")
	}
}
