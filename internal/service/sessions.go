// File: internal/service/sessions.go
package service

import (
	"errors"
	"fmt"
	"time"

	"digital-menu/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

const DefaultSessionTTL = 24 * time.Hour

var timeNow = time.Now

// Claims 定義 session JWT 負載內容
type Claims struct {
	ID   string     `json:"id"`
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool { return c.Role.IsAdmin() }

// Sessions 負責簽發與驗證 HS256 session token
type Sessions struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

func NewSessions(secret string, ttl time.Duration, issuer string) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{Secret: []byte(secret), TTL: ttl, Issuer: issuer}
}

// Issue 依據使用者 id 與角色產生 token，並回傳到期時間
func (s *Sessions) Issue(u *model.User) (string, time.Time, error) {
	if len(s.Secret) == 0 {
		return "", time.Time{}, fmt.Errorf("session secret not set")
	}
	if _, err := model.ParseRole(string(u.Role)); err != nil {
		return "", time.Time{}, err
	}

	now := timeNow()
	exp := now.Add(s.TTL)
	claims := Claims{
		ID:   u.ID,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verify 驗證簽章與期限，role 不是已知值時視為無效 token
func (s *Sessions) Verify(tokenString string) (*Claims, error) {
	if len(s.Secret) == 0 {
		return nil, fmt.Errorf("session secret not set")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := model.ParseRole(string(claims.Role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
