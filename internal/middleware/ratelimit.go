package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimit はIP単位の固定ウィンドウ制限。
// RedisのINCR＋初回EXPIREでウィンドウを作る。
// scopeで同一パスに複数の制限を重ねられる（全体制限＋ログイン制限など）。
// Redisが落ちているときは制限せず通す。
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:%s:%s:%s", scope, c.Path(), c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				_ = rdb.Expire(ctx, key, window).Err()
			}

			if count > int64(limit) {
				return c.JSON(http.StatusTooManyRequests, envelope{
					Success:    false,
					StatusCode: http.StatusTooManyRequests,
					Message:    "Too many requests from this IP, please try again later.",
				})
			}

			return next(c)
		}
	}
}
