package handler

import (
	"net/http"
	"time"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// 認証まわりのAPI
type AuthHandler struct {
	authUC       *usecase.AuthUsecase
	tempDir      string
	accessTTL    time.Duration // accessToken cookieの有効期限
	refreshTTL   time.Duration // refreshToken cookieの有効期限
	cookieSecure bool
	production   bool
}

// DI
func NewAuthHandler(
	authUC *usecase.AuthUsecase,
	tempDir string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	cookieSecure bool,
	production bool,
) *AuthHandler {
	return &AuthHandler{
		authUC:       authUC,
		tempDir:      tempDir,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
		production:   production,
	}
}

// ログインのリクエストボディ。usernameかemailのどちらかで良い。
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// RegisterはPOST /api/v1/users/registerのハンドラ。
// multipart/form-data（テキスト項目＋avatar必須・coverImage任意）。
func (h *AuthHandler) Register(c echo.Context) error {
	avatarPath, err := stageFile(c, "avatar", h.tempDir)
	if err != nil {
		return writeError(c, err, h.production)
	}
	coverPath, err := stageFile(c, "coverImage", h.tempDir)
	if err != nil {
		removeStaged(avatarPath)
		return writeError(c, err, h.production)
	}

	out, err := h.authUC.Register(c.Request().Context(), usecase.RegisterInput{
		Username:       c.FormValue("username"),
		Email:          c.FormValue("email"),
		Password:       c.FormValue("password"),
		FullName:       c.FormValue("fullName"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		//アップロード前に失敗した分の一時ファイルを片付ける
		removeStaged(avatarPath, coverPath)
		return writeError(c, err, h.production)
	}

	return OK(c, http.StatusCreated, out, "User created successfully")
}

// LoginはPOST /api/v1/users/loginのハンドラ。
// トークンはcookieとボディの両方で返す。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	out, err := h.authUC.Login(c.Request().Context(), usecase.LoginInput{
		Identifier: identifier,
		Password:   req.Password,
	})
	if err != nil {
		return writeError(c, err, h.production)
	}

	h.setAuthCookies(c, out.Token)

	return OK(c, http.StatusOK, echo.Map{
		"user":         out.User,
		"accessToken":  out.Token.AccessToken,
		"refreshToken": out.Token.RefreshToken,
	}, "User logged in successfully")
}

// LogoutはPOST /api/v1/users/logoutのハンドラ（要認証）。
// 二重ログアウトも成功として返す。
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authUC.Logout(c.Request().Context(), middleware.CurrentUserID(c)); err != nil {
		return writeError(c, err, h.production)
	}

	h.clearAuthCookies(c)

	return OK(c, http.StatusOK, nil, "User logged out successfully")
}

// RefreshはPOST /api/v1/users/refresh-tokenのハンドラ。
// cookie優先、なければボディからrefresh tokenを取る。
func (h *AuthHandler) Refresh(c echo.Context) error {
	presented := ""
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.authUC.RefreshSession(c.Request().Context(), presented)
	if err != nil {
		return writeError(c, err, h.production)
	}

	h.setAuthCookies(c, pair)

	return OK(c, http.StatusOK, pair, "Access token refreshed")
}

// ChangePasswordはPOST /api/v1/users/change-passwordのハンドラ（要認証）。
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	err := h.authUC.ChangePassword(c.Request().Context(), middleware.CurrentUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		return writeError(c, err, h.production)
	}

	return OK(c, http.StatusOK, nil, "Password changed successfully")
}

// トークン一対をhttp-only cookieにセット
func (h *AuthHandler) setAuthCookies(c echo.Context, pair usecase.TokenPair) {
	now := time.Now()

	c.SetCookie(&http.Cookie{
		Name:     accessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(h.accessTTL),
	})
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(h.refreshTTL),
	})
}

// 両cookieを失効させる
func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}
