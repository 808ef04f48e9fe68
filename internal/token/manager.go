package token

import (
	"errors"
	"time"

	"app/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

// 有効期限切れ
var ErrExpired = errors.New("token expired")

// 署名不正・形式不正など
var ErrInvalid = errors.New("invalid token")

// アクセストークンのclaims。本人確認に使う最低限の情報を載せる。
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// リフレッシュトークンはidのみ
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Managerはaccess/refresh両トークンの発行と検証を行う。
// シークレットと有効期限はトークン種別ごとに分ける。
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// DI
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccessToken は短命のアクセストークンを発行する
func (m *Manager) IssueAccessToken(user *model.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.accessTTL)

	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// IssueRefreshToken は長命のリフレッシュトークンを発行する
func (m *Manager) IssueRefreshToken(userID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.refreshTTL)

	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken はアクセストークンを検証してclaimsを返す
func (m *Manager) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.verify(raw, claims, m.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken はリフレッシュトークンを検証してuserIDを返す
func (m *Manager) VerifyRefreshToken(raw string) (string, error) {
	claims := &RefreshClaims{}
	if err := m.verify(raw, claims, m.refreshSecret); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

// 共通の検証。期限切れと署名不正は区別して返す。
func (m *Manager) verify(raw string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalid
	}
	if tok == nil || !tok.Valid {
		return ErrInvalid
	}
	return nil
}
