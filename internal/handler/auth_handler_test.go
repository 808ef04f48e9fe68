package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	args := m.Called(ctx, identifier)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	args := m.Called(ctx, userID, fields)
	return args.Error(0)
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

// =====================
// Mock: MediaStorage
// =====================

type MockMediaStorage struct {
	mock.Mock
}

func (m *MockMediaStorage) Upload(ctx context.Context, localPath string) (string, error) {
	args := m.Called(ctx, localPath)
	return args.String(0), args.Error(1)
}

// =====================
// Helper
// =====================

type fixedIDGen struct{ id string }

func (g fixedIDGen) NewID() string { return g.id }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

// 実物のトークン・バリデータ・bcryptを束ねてハンドラを組む。
// 外部I/Oはモックのまま。
func newAuthHandler(t *testing.T, userRepo *MockUserRepository, media *MockMediaStorage) *handler.AuthHandler {
	t.Helper()

	manager := token.NewManager("handler-access-secret", "handler-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	uc := usecase.NewAuthUsecase(
		userRepo,
		usecase.NewBcryptPasswordHasher(bcrypt.MinCost),
		usecase.NewBcryptPasswordVerifier(),
		manager,
		media,
		fixedIDGen{id: "user-1"},
		systemClock{},
		validator.NewAuthValidator(),
	)

	return handler.NewAuthHandler(uc, t.TempDir(), 15*time.Minute, 7*24*time.Hour, false, false)
}

func loginUser(t *testing.T) *model.User {
	return &model.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "a@x.com",
		FullName:     "Alice A",
		Avatar:       "https://cdn.example.com/avatar.png",
		PasswordHash: mustHash(t, "Secret1!"),
	}
}

func postJSON(path, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := &http.Response{Header: rec.Header()}
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// =====================
// Tests
// =====================

func TestAuthHandler_Login_Success(t *testing.T) {
	user := loginUser(t)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByUsernameOrEmail", mock.Anything, "alice").Return(user, nil)
	//refresh tokenのハッシュが保存される
	userRepo.On("UpdateFields", mock.Anything, "user-1", mock.Anything).Return(nil)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/login", `{"username":"alice","password":"Secret1!"}`)
	assert.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"accessToken"`)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	//秘密情報はボディに出ない
	assert.NotContains(t, rec.Body.String(), "PasswordHash")
	assert.NotContains(t, rec.Body.String(), user.PasswordHash)

	//両トークンがhttp-only cookieで返る
	access := cookieByName(rec, "accessToken")
	refresh := cookieByName(rec, "refreshToken")
	if assert.NotNil(t, access) {
		assert.True(t, access.HttpOnly)
		assert.NotEmpty(t, access.Value)
	}
	if assert.NotNil(t, refresh) {
		assert.True(t, refresh.HttpOnly)
		assert.NotEmpty(t, refresh.Value)
	}

	userRepo.AssertCalled(t, "UpdateFields", mock.Anything, "user-1", mock.Anything)
}

func TestAuthHandler_Login_ByEmail(t *testing.T) {
	user := loginUser(t)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByUsernameOrEmail", mock.Anything, "a@x.com").Return(user, nil)
	userRepo.On("UpdateFields", mock.Anything, "user-1", mock.Anything).Return(nil)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/login", `{"email":"a@x.com","password":"Secret1!"}`)
	assert.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByUsernameOrEmail", mock.Anything, "alice").Return(loginUser(t), nil)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/login", `{"username":"alice","password":"wrong"}`)
	assert.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Nil(t, cookieByName(rec, "accessToken"))
}

func TestAuthHandler_Login_UnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByUsernameOrEmail", mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/login", `{"username":"ghost","password":"Secret1!"}`)
	assert.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthHandler_Login_MissingIdentifier(t *testing.T) {
	h := newAuthHandler(t, new(MockUserRepository), new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/login", `{"password":"Secret1!"}`)
	assert.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	user := loginUser(t)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByUsernameOrEmail", mock.Anything, "alice").Return(user, nil)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(user, nil)
	//保存されるハッシュをユーザーに反映して回転を再現する
	userRepo.On("UpdateFields", mock.Anything, "user-1", mock.Anything).Run(func(args mock.Arguments) {
		fields := args.Get(2).(map[string]interface{})
		if h, ok := fields["refresh_token_hash"].(string); ok {
			user.RefreshTokenHash = h
		}
	}).Return(nil)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))
	e := echo.New()

	//まずログインしてrefresh tokenを得る
	req, rec := postJSON("/api/v1/users/login", `{"username":"alice","password":"Secret1!"}`)
	assert.NoError(t, h.Login(e.NewContext(req, rec)))
	refresh := cookieByName(rec, "refreshToken")
	assert.NotNil(t, refresh)

	//そのcookieでリフレッシュする
	req, rec = postJSON("/api/v1/users/refresh-token", "")
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh.Value})
	assert.NoError(t, h.Refresh(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accessToken"`)
	assert.NotNil(t, cookieByName(rec, "refreshToken"))
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	h := newAuthHandler(t, new(MockUserRepository), new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/refresh-token", "{}")
	assert.NoError(t, h.Refresh(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Refresh_GarbageToken(t *testing.T) {
	h := newAuthHandler(t, new(MockUserRepository), new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/refresh-token", `{"refreshToken":"garbage"}`)
	assert.NoError(t, h.Refresh(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Logout_ClearsCookies(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("UpdateFields", mock.Anything, "user-1", map[string]interface{}{
		"refresh_token_hash": "",
	}).Return(nil)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/logout", "")
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserIDKey, "user-1")

	assert.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	//両cookieが失効している
	for _, name := range []string{"accessToken", "refreshToken"} {
		ck := cookieByName(rec, name)
		if assert.NotNil(t, ck) {
			assert.Empty(t, ck.Value)
			assert.Negative(t, ck.MaxAge)
		}
	}
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(loginUser(t), nil)
	userRepo.On("UpdateFields", mock.Anything, "user-1", mock.Anything).Return(nil)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/change-password", `{"oldPassword":"Secret1!","newPassword":"NewSecret2!"}`)
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserIDKey, "user-1")

	assert.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password changed successfully")
}

func TestAuthHandler_ChangePassword_WrongOldPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, "user-1").Return(loginUser(t), nil)

	h := newAuthHandler(t, userRepo, new(MockMediaStorage))

	e := echo.New()
	req, rec := postJSON("/api/v1/users/change-password", `{"oldPassword":"wrong","newPassword":"NewSecret2!"}`)
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserIDKey, "user-1")

	assert.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}
