package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"app/internal/repository"
)

// プロフィール更新の入力。空のフィールドは変更しない。
type UpdateProfileInput struct {
	FullName string
	Email    string
}

// UserUsecaseはプロフィール参照と更新。
// 返すものは常にUserDTO（password/refresh tokenは含めない）。
type UserUsecase struct {
	users   repository.UserRepository
	storage MediaStorage
}

// DI
func NewUserUsecase(users repository.UserRepository, storage MediaStorage) *UserUsecase {
	return &UserUsecase{users: users, storage: storage}
}

// Profile は自分のプロフィールを返す
func (u *UserUsecase) Profile(ctx context.Context, userID string) (UserDTO, error) {
	var out UserDTO

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, fmt.Errorf("%w: user does not exist", ErrNotFound)
		}
		return out, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return toUserDTO(user), nil
}

// UpdateProfile はfullName/emailを更新する
func (u *UserUsecase) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (UserDTO, error) {
	var out UserDTO

	fields := map[string]interface{}{}

	if v := strings.TrimSpace(in.FullName); v != "" {
		fields["full_name"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(in.Email)); v != "" {
		if _, err := mail.ParseAddress(v); err != nil {
			return out, fmt.Errorf("%w: invalid email format", ErrValidation)
		}
		fields["email"] = v
	}

	if len(fields) == 0 {
		return out, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	if err := u.users.UpdateFields(ctx, userID, fields); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUser):
			return out, fmt.Errorf("%w: email already in use", ErrConflict)
		case errors.Is(err, repository.ErrUserNotFound):
			return out, fmt.Errorf("%w: user does not exist", ErrNotFound)
		default:
			return out, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	return u.Profile(ctx, userID)
}

// UpdateAvatar は新しいアバターを上げてURLを差し替える
func (u *UserUsecase) UpdateAvatar(ctx context.Context, userID, localPath string) (UserDTO, error) {
	return u.updateImage(ctx, userID, localPath, "avatar")
}

// UpdateCoverImage はカバー画像を差し替える
func (u *UserUsecase) UpdateCoverImage(ctx context.Context, userID, localPath string) (UserDTO, error) {
	return u.updateImage(ctx, userID, localPath, "cover_image")
}

func (u *UserUsecase) updateImage(ctx context.Context, userID, localPath, column string) (UserDTO, error) {
	var out UserDTO

	if strings.TrimSpace(localPath) == "" {
		return out, fmt.Errorf("%w: image file is required", ErrValidation)
	}

	url, err := u.storage.Upload(ctx, localPath)
	if err != nil || url == "" {
		return out, fmt.Errorf("%w: failed to upload image", ErrUpstream)
	}

	if err := u.users.UpdateFields(ctx, userID, map[string]interface{}{column: url}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, fmt.Errorf("%w: user does not exist", ErrNotFound)
		}
		return out, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return u.Profile(ctx, userID)
}
