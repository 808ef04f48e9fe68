package validator

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"app/internal/usecase"
)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// 会員登録の入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, username, email, password, fullName string) error {
	// 必須チェック（空白のみも不可）
	for _, field := range []string{username, email, password, fullName} {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("%w: all fields are required", usecase.ErrValidation)
		}
	}

	// email形式
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("%w: invalid email format", usecase.ErrValidation)
	}

	// パスワード最低文字数
	if len(password) < 8 {
		return fmt.Errorf("%w: password too short", usecase.ErrValidation)
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, identifier, password string) error {
	if strings.TrimSpace(identifier) == "" {
		return fmt.Errorf("%w: username or email is required", usecase.ErrValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", usecase.ErrValidation)
	}
	return nil
}
