package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
)

// JWTを発行・検証する約束
type TokenManager interface {
	IssueAccessToken(user *model.User, now time.Time) (token string, expiresAt time.Time, err error)
	IssueRefreshToken(userID string, now time.Time) (token string, expiresAt time.Time, err error)
	VerifyRefreshToken(raw string) (userID string, err error)
}

// 画像をメディアストレージへ上げる約束
type MediaStorage interface {
	Upload(ctx context.Context, localPath string) (url string, err error)
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, username, email, password, fullName string) error
	ValidateLogin(ctx context.Context, identifier, password string) error
}

// 会員登録の入力
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	// multipartから一時保存したローカルパス
	AvatarPath     string
	CoverImagePath string
}

// ログインの入力（usernameかemailのどちらかで良い）
type LoginInput struct {
	Identifier string
	Password   string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginOutput struct {
	User  UserDTO `json:"user"`
	Token TokenPair
}

// AuthUsecaseはセッションライフサイクル（登録・ログイン・ログアウト・
// リフレッシュ・パスワード変更）をまとめる。
type AuthUsecase struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	verifier  PasswordVerifier
	tokens    TokenManager
	storage   MediaStorage
	idGen     IDGenerator
	clock     Clock
	validator AuthValidator
}

// DI
func NewAuthUsecase(
	users repository.UserRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	tokens TokenManager,
	storage MediaStorage,
	idGen IDGenerator,
	clock Clock,
	validator AuthValidator,
) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		hasher:    hasher,
		verifier:  verifier,
		tokens:    tokens,
		storage:   storage,
		idGen:     idGen,
		clock:     clock,
		validator: validator,
	}
}

// Register は会員登録。アバターは必須、カバー画像は任意。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserDTO, error) {
	var out UserDTO

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, in.Username, in.Email, in.Password, in.FullName); err != nil {
		return out, err
	}

	//アバターは必須
	if strings.TrimSpace(in.AvatarPath) == "" {
		return out, fmt.Errorf("%w: avatar is required", ErrValidation)
	}

	//username/emailは小文字に正規化して一意判定する
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	//重複チェック
	if err := u.checkNotTaken(ctx, username); err != nil {
		return out, err
	}
	if err := u.checkNotTaken(ctx, email); err != nil {
		return out, err
	}

	//アバターをストレージへ。失敗したら登録自体を中止する。
	avatarURL, err := u.storage.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		return out, fmt.Errorf("%w: failed to upload avatar", ErrUpstream)
	}

	//カバー画像は任意。失敗しても登録は続行する。
	coverURL := ""
	if in.CoverImagePath != "" {
		if url, err := u.storage.Upload(ctx, in.CoverImagePath); err == nil {
			coverURL = url
		}
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, fmt.Errorf("%w: password hash failed", ErrUpstream)
	}

	user := &model.User{
		ID:           u.idGen.NewID(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: pwHash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
	}

	//保存（unique index違反は競合として返す）
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return out, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return out, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return toUserDTO(user), nil
}

// Login はusernameまたはemailとパスワードで認証し、トークン一対を返す。
// 発行したrefresh tokenのハッシュをアカウントに保存する（既存値は上書き＝
// 同時セッションは常に1つ）。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	if err := u.validator.ValidateLogin(ctx, in.Identifier, in.Password); err != nil {
		return out, err
	}

	user, err := u.users.FindByUsernameOrEmail(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, fmt.Errorf("%w: user does not exist", ErrNotFound)
		}
		return out, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	pair, err := u.issueAndStoreTokens(ctx, user)
	if err != nil {
		return out, err
	}

	out.User = toUserDTO(user)
	out.Token = pair
	return out, nil
}

// Logout は保存済みrefresh tokenを消す。二重に呼んでもエラーにしない。
func (u *AuthUsecase) Logout(ctx context.Context, userID string) error {
	err := u.users.UpdateFields(ctx, userID, map[string]interface{}{
		"refresh_token_hash": "",
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// すでに存在しないアカウントのログアウトも成功扱い
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// RefreshSession は提示されたrefresh tokenを検証して新しい一対を発行する。
// 保存値と一致しないトークンは（盗難・別端末ログインを含めて）すべて401。
// 成功時は保存値を新トークンで上書きし、旧トークンは以後使えない（回転）。
func (u *AuthUsecase) RefreshSession(ctx context.Context, presented string) (TokenPair, error) {
	var out TokenPair

	if strings.TrimSpace(presented) == "" {
		return out, fmt.Errorf("%w: refresh token is missing", ErrUnauthorized)
	}

	userID, err := u.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return out, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
		}
		return out, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	//保存値との完全一致が唯一の有効条件
	if user.RefreshTokenHash == "" || subtle.ConstantTimeCompare(
		[]byte(hashToken(presented)), []byte(user.RefreshTokenHash)) != 1 {
		return out, fmt.Errorf("%w: refresh token is expired or used", ErrUnauthorized)
	}

	return u.issueAndStoreTokens(ctx, user)
}

// ChangePassword は旧パスワード確認の上で再ハッシュして差し替える。
// 既存セッションは失効させない（保存済みrefresh tokenはそのまま）。
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", ErrValidation)
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if ok := u.verifier.Verify(oldPassword, user.PasswordHash); !ok {
		return fmt.Errorf("%w: invalid old password", ErrUnauthorized)
	}

	pwHash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: password hash failed", ErrUpstream)
	}

	if err := u.users.UpdateFields(ctx, userID, map[string]interface{}{
		"password_hash": pwHash,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// identifierが未使用であることを確認する
func (u *AuthUsecase) checkNotTaken(ctx context.Context, identifier string) error {
	_, err := u.users.FindByUsernameOrEmail(ctx, identifier)
	if err == nil {
		return fmt.Errorf("%w: user already exists", ErrConflict)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// トークン一対を発行してrefresh側のハッシュを保存する。
// 保存は単純上書き（last-write-wins）。同時refreshの片方は次回使用時に落ちる。
func (u *AuthUsecase) issueAndStoreTokens(ctx context.Context, user *model.User) (TokenPair, error) {
	var pair TokenPair

	now := u.clock.Now()

	accessToken, _, err := u.tokens.IssueAccessToken(user, now)
	if err != nil {
		return pair, fmt.Errorf("%w: token sign failed", ErrUpstream)
	}

	refreshToken, _, err := u.tokens.IssueRefreshToken(user.ID, now)
	if err != nil {
		return pair, fmt.Errorf("%w: token sign failed", ErrUpstream)
	}

	if err := u.users.UpdateFields(ctx, user.ID, map[string]interface{}{
		"refresh_token_hash": hashToken(refreshToken),
	}); err != nil {
		return pair, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	pair.AccessToken = accessToken
	pair.RefreshToken = refreshToken
	return pair, nil
}

// DB保存用のハッシュ（平文トークンは保存しない）
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
