package handler

import (
	"context"
	"net/http"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// GET /api/v1/users/me のフルパス。キャッシュ無効化でも使う。
const MePath = "/api/v1/users/me"

// プロフィールAPI
type UserHandler struct {
	userUC     *usecase.UserUsecase
	cache      *middleware.ResponseCache
	tempDir    string
	production bool
}

// DI
func NewUserHandler(
	userUC *usecase.UserUsecase,
	cache *middleware.ResponseCache,
	tempDir string,
	production bool,
) *UserHandler {
	return &UserHandler{
		userUC:     userUC,
		cache:      cache,
		tempDir:    tempDir,
		production: production,
	}
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// MeはGET /api/v1/users/meのハンドラ（要認証・キャッシュあり）
func (h *UserHandler) Me(c echo.Context) error {
	out, err := h.userUC.Profile(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return writeError(c, err, h.production)
	}

	return OK(c, http.StatusOK, out, "Profile fetched successfully")
}

// UpdateProfileはPATCH /api/v1/users/meのハンドラ
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	userID := middleware.CurrentUserID(c)

	out, err := h.userUC.UpdateProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return writeError(c, err, h.production)
	}

	h.invalidateProfile(c, userID)

	return OK(c, http.StatusOK, out, "Profile updated successfully")
}

// UpdateAvatarはPATCH /api/v1/users/avatarのハンドラ（multipart）
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.userUC.UpdateAvatar)
}

// UpdateCoverImageはPATCH /api/v1/users/cover-imageのハンドラ（multipart）
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.userUC.UpdateCoverImage)
}

// avatar/cover共通の差し替え処理
func (h *UserHandler) updateImage(
	c echo.Context,
	field string,
	update func(ctx context.Context, userID, localPath string) (usecase.UserDTO, error),
) error {
	localPath, err := stageFile(c, field, h.tempDir)
	if err != nil {
		return writeError(c, err, h.production)
	}

	userID := middleware.CurrentUserID(c)

	out, err := update(c.Request().Context(), userID, localPath)
	if err != nil {
		removeStaged(localPath)
		return writeError(c, err, h.production)
	}

	h.invalidateProfile(c, userID)

	return OK(c, http.StatusOK, out, "Image updated successfully")
}

// プロフィールの更新後は古いキャッシュを消す
func (h *UserHandler) invalidateProfile(c echo.Context, userID string) {
	if h.cache == nil {
		return
	}
	_ = h.cache.Invalidate(c.Request().Context(), MePath, userID)
}
