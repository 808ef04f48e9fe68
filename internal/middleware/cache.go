package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// ResponseCacheはGETレスポンスをRedisへ丸ごと置く。
// キーはリクエストパス＋認証済みユーザーID（他人のプロフィールを返さないため）。
// Redisが落ちていてもリクエストは通す。
type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// DI
func NewResponseCache(rdb *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{rdb: rdb, ttl: ttl}
}

// Middleware はキャッシュヒットならそのまま返し、ミスなら
// レスポンスを横取りして2xxのときだけ保存する。
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			key := rc.key(c.Request().URL.Path, CurrentUserID(c))

			if cached, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, cached)
			}

			//レスポンスを横取りする
			rec := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}

			//成功レスポンスだけ保存する
			if rec.status >= 200 && rec.status < 300 {
				_ = rc.rdb.SetEx(ctx, key, rec.buf.Bytes(), rc.ttl).Err()
			}

			return nil
		}
	}
}

// Invalidate は書き込み系操作の後にキャッシュを消す
func (rc *ResponseCache) Invalidate(ctx context.Context, path, userID string) error {
	return rc.rdb.Del(ctx, rc.key(path, userID)).Err()
}

func (rc *ResponseCache) key(path, userID string) string {
	if userID == "" {
		return "cache:" + path
	}
	return "cache:" + path + ":" + userID
}

type captureWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
