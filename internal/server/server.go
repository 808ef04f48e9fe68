package server

import (
	"app/internal/config"
	"app/internal/handler"
	"app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// ルーティングに必要な部品
type Deps struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	Gate  echo.MiddlewareFunc
	Cache *middleware.ResponseCache
	Redis *redis.Client
}

// New はechoを組み立ててルートを登録する
func New(cfg config.Config, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))

	RegisterRoutes(e, d)

	return e
}
