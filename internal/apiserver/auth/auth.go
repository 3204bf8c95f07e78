// Package auth 认证与访问令牌
//
// 职责：
//   - 密码散列与校验（bcrypt）
//   - JWT 访问令牌签发与解析（HS256）
//   - 请求上下文中的当前用户注入与读取
//   - 认证中间件（含公开路由放行与封禁拦截）
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"contenthub/internal/shared/model"
)

const (
	bcryptCost = 12

	tokenTypeAccess = "access"
)

// Config 认证配置
type Config struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
}

// Claims 访问令牌声明
type Claims struct {
	jwt.RegisteredClaims
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
	Type  string         `json:"type"`
}

// AuthUser 请求上下文中的当前用户快照
//
// 由中间件在每个请求上从存储层重新加载，封禁与会员状态始终是最新的。
type AuthUser struct {
	ID                  string
	Email               string
	Role                model.UserRole
	MembershipExpiresAt *time.Time
}

// MembershipActive 当前用户会员资格在 now 时刻是否有效
func (u *AuthUser) MembershipActive(now time.Time) bool {
	return u != nil && u.MembershipExpiresAt != nil && u.MembershipExpiresAt.After(now)
}

// HashPassword 生成密码散列
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword 校验明文密码与散列是否匹配
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GenerateAccessToken 签发访问令牌
func (c Config) GenerateAccessToken(u *model.User, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.AccessTokenTTL)),
		},
		Email: u.Email,
		Role:  u.Role,
		Type:  tokenTypeAccess,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseToken 解析并校验访问令牌
func (c Config) ParseToken(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(c.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Type != tokenTypeAccess {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	return &claims, nil
}

type ctxKey struct{}

// WithAuthUser 将当前用户注入上下文
func WithAuthUser(ctx context.Context, u *AuthUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// GetAuthUser 从上下文读取当前用户；匿名请求返回 nil
func GetAuthUser(ctx context.Context) *AuthUser {
	u, _ := ctx.Value(ctxKey{}).(*AuthUser)
	return u
}
