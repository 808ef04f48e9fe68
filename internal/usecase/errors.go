package usecase

import "errors"

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//404 該当アカウントなし
	ErrNotFound = errors.New("not found")
	//409 username/email競合
	ErrConflict = errors.New("conflict")
	//500 ストレージやDBなど外部要因
	ErrUpstream = errors.New("upstream error")
)
