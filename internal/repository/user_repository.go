package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// username/emailの一意制約違反
var ErrDuplicateUser = errors.New("user already exists")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（重複はErrDuplicateUser）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	// usernameまたはemailからユーザーを1件取得する（大文字小文字は区別しない）。
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error)
	// 指定カラムだけ更新する（refresh_token_hashやpassword_hashの差し替えなど）。
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error
}
