package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func profileUser() *model.User {
	return &model.User{
		ID:               "user-1",
		Username:         "alice",
		Email:            "a@x.com",
		FullName:         "Alice A",
		Avatar:           "https://cdn.example.com/avatar.png",
		PasswordHash:     "$2a$10$secret",
		RefreshTokenHash: "deadbeef",
	}
}

func TestUserUsecase_Profile_ExcludesSecrets(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(profileUser(), nil)

	uc := usecase.NewUserUsecase(userRepo, new(MockMediaStorage))

	out, err := uc.Profile(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "alice", out.Username)
	assert.Equal(t, "a@x.com", out.Email)
	assert.Equal(t, "https://cdn.example.com/avatar.png", out.Avatar)
}

func TestUserUsecase_Profile_NotFound(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound)

	uc := usecase.NewUserUsecase(userRepo, new(MockMediaStorage))

	_, err := uc.Profile(ctx, "ghost")
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestUserUsecase_UpdateProfile_Success(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)

	var updated map[string]interface{}
	userRepo.On("UpdateFields", mock.Anything, "user-1", mock.Anything).Run(func(args mock.Arguments) {
		updated = args.Get(2).(map[string]interface{})
	}).Return(nil)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(profileUser(), nil)

	uc := usecase.NewUserUsecase(userRepo, new(MockMediaStorage))

	_, err := uc.UpdateProfile(ctx, "user-1", usecase.UpdateProfileInput{
		FullName: "Alice B",
		Email:    "New@X.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Alice B", updated["full_name"])
	//emailは小文字に正規化される
	assert.Equal(t, "new@x.com", updated["email"])
}

func TestUserUsecase_UpdateProfile_NothingToUpdate(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewUserUsecase(new(MockUserRepository), new(MockMediaStorage))

	_, err := uc.UpdateProfile(ctx, "user-1", usecase.UpdateProfileInput{})
	assert.ErrorIs(t, err, usecase.ErrValidation)
}

func TestUserUsecase_UpdateProfile_BadEmail(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewUserUsecase(new(MockUserRepository), new(MockMediaStorage))

	_, err := uc.UpdateProfile(ctx, "user-1", usecase.UpdateProfileInput{Email: "not-an-email"})
	assert.ErrorIs(t, err, usecase.ErrValidation)
}

func TestUserUsecase_UpdateProfile_EmailConflict(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)
	userRepo.On("UpdateFields", mock.Anything, "user-1", mock.Anything).Return(repository.ErrDuplicateUser)

	uc := usecase.NewUserUsecase(userRepo, new(MockMediaStorage))

	_, err := uc.UpdateProfile(ctx, "user-1", usecase.UpdateProfileInput{Email: "taken@x.com"})
	assert.ErrorIs(t, err, usecase.ErrConflict)
}

func TestUserUsecase_UpdateAvatar_Success(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)
	media := new(MockMediaStorage)

	media.On("Upload", mock.Anything, "/tmp/new.png").Return("https://cdn.example.com/new.png", nil)

	var updated map[string]interface{}
	userRepo.On("UpdateFields", mock.Anything, "user-1", mock.Anything).Run(func(args mock.Arguments) {
		updated = args.Get(2).(map[string]interface{})
	}).Return(nil)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(profileUser(), nil)

	uc := usecase.NewUserUsecase(userRepo, media)

	_, err := uc.UpdateAvatar(ctx, "user-1", "/tmp/new.png")
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/new.png", updated["avatar"])
}

func TestUserUsecase_UpdateAvatar_UploadFailed(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)
	media := new(MockMediaStorage)
	media.On("Upload", mock.Anything, "/tmp/new.png").Return("", assert.AnError)

	uc := usecase.NewUserUsecase(userRepo, media)

	_, err := uc.UpdateAvatar(ctx, "user-1", "/tmp/new.png")
	assert.ErrorIs(t, err, usecase.ErrUpstream)
	userRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserUsecase_UpdateCoverImage_MissingFile(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewUserUsecase(new(MockUserRepository), new(MockMediaStorage))

	_, err := uc.UpdateCoverImage(ctx, "user-1", "")
	assert.ErrorIs(t, err, usecase.ErrValidation)
}
