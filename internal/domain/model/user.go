package model

import "time"

// Userはアカウント本体。username/emailはグローバル一意。
// パスワードは必ずハッシュで保存する（平文保存しない）。
type User struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	Username string `gorm:"uniqueIndex;not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	FullName string `gorm:"not null;index"`

	PasswordHash string `gorm:"column:password_hash;not null"`

	Avatar     string `gorm:"not null"` // メディアストレージ上のURL（必須）
	CoverImage string // 任意

	// 有効なrefresh tokenは常に1枠（端末ごとの複数セッションは持たない）。
	// DBには平文ではなくsha256を保存する。空文字はログアウト済み。
	RefreshTokenHash string `gorm:"column:refresh_token_hash"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
