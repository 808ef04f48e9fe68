package handler

import (
	"errors"
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全レスポンス共通の封筒
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Errors     []string    `json:"errors,omitempty"`
}

// OK は成功レスポンスを書く
func OK(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Envelope{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// Fail はエラーレスポンスを書く
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{
		Success:    false,
		StatusCode: status,
		Message:    message,
	})
}

// writeError はusecaseのエラー種別をHTTPステータスへ変換する。
// 変換はここ一箇所だけ。下の層はHTTPを知らない。
func writeError(c echo.Context, err error, production bool) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrValidation):
		return Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrUnauthorized):
		return Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, usecase.ErrNotFound):
		return Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, usecase.ErrConflict):
		return Fail(c, http.StatusConflict, err.Error())
	default:
		//500 本番では内部事情を漏らさない
		msg := "Internal Server Error"
		if !production {
			msg = err.Error()
		}
		return Fail(c, http.StatusInternalServerError, msg)
	}
}
