package server

import (
	"net/http"
	"time"

	"app/internal/handler"
	"app/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", home)
	e.GET("/health", health, middleware.RateLimit(d.Redis, "health", 30, time.Minute))

	// 全体レート制限（IPごと 100req/15min）
	api := e.Group("/api/v1/users", middleware.RateLimit(d.Redis, "api", 100, 15*time.Minute))

	//公開ルート
	api.POST("/register", d.Auth.Register)
	api.POST("/login", d.Auth.Login, middleware.RateLimit(d.Redis, "login", 10, 15*time.Minute))
	api.POST("/refresh-token", d.Auth.Refresh)

	//保護ルート（認証ゲート必須）
	auth := api.Group("", d.Gate)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/change-password", d.Auth.ChangePassword)
	auth.GET("/me", d.User.Me, d.Cache.Middleware())
	auth.PATCH("/me", d.User.UpdateProfile)
	auth.PATCH("/avatar", d.User.UpdateAvatar)
	auth.PATCH("/cover-image", d.User.UpdateCoverImage)
}

func home(c echo.Context) error {
	return handler.OK(c, http.StatusOK, echo.Map{
		"message": "Welcome to the User Account API",
		"status":  "API is running successfully",
	}, "Home route accessed successfully")
}

func health(c echo.Context) error {
	return handler.OK(c, http.StatusOK, echo.Map{
		"status":    "OK",
		"timestamp": time.Now(),
	}, "API is healthy")
}
