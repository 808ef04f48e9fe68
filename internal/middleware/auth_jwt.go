package middleware

import (
	"net/http"
	"strings"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserKey   = "current_user" // *model.User（秘密情報は空にしてある）
	CtxUserIDKey = "user_id"      // string
)

// アクセストークンを検証する約束
type AccessTokenVerifier interface {
	VerifyAccessToken(raw string) (*token.AccessClaims, error)
}

// AuthJWT は保護ルートの認証ゲート。
// Cookie優先でトークンを取り、検証してDBのアカウントを解決し、
// contextへ載せてから次へ進める。毎リクエスト再検証する（キャッシュしない）。
func AuthJWT(verifier AccessTokenVerifier, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken := extractToken(c)
			if rawToken == "" {
				return unauthorized(c, "You are not logged in")
			}

			claims, err := verifier.VerifyAccessToken(rawToken)
			if err != nil {
				return unauthorized(c, "Invalid or expired token")
			}

			//トークンが指すアカウントが今も存在するか確認する
			user, err := users.FindByID(c.Request().Context(), claims.Subject)
			if err != nil {
				return unauthorized(c, "The user belonging to this token no longer exists")
			}

			//秘密情報はcontextに載せない
			safeUser := *user
			safeUser.PasswordHash = ""
			safeUser.RefreshTokenHash = ""

			c.Set(CtxUserKey, &safeUser)
			c.Set(CtxUserIDKey, safeUser.ID)

			return next(c)
		}
	}
}

// CurrentUser はゲートが解決したアカウントを取り出す
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(CtxUserKey).(*model.User)
	return u, ok
}

// CurrentUserID はゲートが解決したアカウントIDを取り出す
func CurrentUserID(c echo.Context) string {
	id, _ := c.Get(CtxUserIDKey).(string)
	return id
}

// Cookie優先、なければAuthorization: Bearer
func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return ""
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, envelope{
		Success:    false,
		StatusCode: http.StatusUnauthorized,
		Message:    msg,
	})
}
