package users_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/BearBump/SwiftDrop/internal/services/users"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeAuth map[string]auth.Identity

func (f fakeAuth) Authenticate(ctx context.Context, token string) (auth.Identity, *models.User, error) {
	id, ok := f[strings.TrimPrefix(token, "Bearer ")]
	if !ok {
		return auth.Identity{}, nil, apperrors.Unauthorized("invalid or expired token")
	}
	return id, &models.User{ID: id.ID, Role: id.Role}, nil
}

type fakeService struct {
	err error

	registered users.RegisterRequest
	login      string
	password   string
	filter     models.UserFilter
	page       models.Page
	blockedID  uuid.UUID
	blocked    *bool
	meID       uuid.UUID
}

func (f *fakeService) Register(ctx context.Context, req users.RegisterRequest) (*users.AuthResult, error) {
	f.registered = req
	if f.err != nil {
		return nil, f.err
	}
	return &users.AuthResult{Token: "tok", User: &models.User{ID: uuid.New(), Email: req.Email, Role: req.Role}}, nil
}

func (f *fakeService) Login(ctx context.Context, login, password string) (*users.AuthResult, error) {
	f.login, f.password = login, password
	if f.err != nil {
		return nil, f.err
	}
	return &users.AuthResult{Token: "tok", User: &models.User{ID: uuid.New()}}, nil
}

func (f *fakeService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.meID = id
	return &models.User{ID: id, Name: "Olena"}, f.err
}

func (f *fakeService) List(ctx context.Context, fl models.UserFilter, page models.Page) (*models.UserList, error) {
	f.filter, f.page = fl, page
	return &models.UserList{Items: []*models.User{{ID: uuid.New()}}, Total: 1}, f.err
}

func (f *fakeService) SetBlocked(ctx context.Context, actor auth.Identity, id uuid.UUID, blocked bool) (*models.User, error) {
	f.blockedID, f.blocked = id, &blocked
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, IsBlocked: blocked}, nil
}

var (
	admin  = auth.Identity{ID: uuid.New(), Role: models.RoleAdmin}
	sender = auth.Identity{ID: uuid.New(), Role: models.RoleSender}
)

func newRouter(svc *fakeService) http.Handler {
	r := chi.NewRouter()
	New(svc).Mount(r, fakeAuth{"admin": admin, "sender": sender})
	return r
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestRegister(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	rec, body := do(t, h, http.MethodPost, "/api/auth/register", "",
		`{"name":"Olena","email":"olena@example.com","password":"secret1","role":"receiver"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "tok", body["data"].(map[string]any)["token"])
	require.Equal(t, models.RoleReceiver, svc.registered.Role)

	rec, body = do(t, h, http.MethodPost, "/api/auth/register", "",
		`{"name":"Olena","email":"olena@example.com","password":"123","role":"admin"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["message"], "password must be at least 6 characters")
	require.Contains(t, body["message"], "role must be one of: sender receiver")

	svc.err = apperrors.Conflict("email already registered")
	rec, body = do(t, h, http.MethodPost, "/api/auth/register", "",
		`{"name":"Olena","email":"olena@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "email already registered", body["message"])
}

func TestLogin(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	rec, _ := do(t, h, http.MethodPost, "/api/auth/login", "", `{"shortId":" AB12CD34 ","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "AB12CD34", svc.login)
	require.Equal(t, "secret1", svc.password)

	rec, body := do(t, h, http.MethodPost, "/api/auth/login", "", `{"password":"secret1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "login is required", body["message"])

	svc.err = apperrors.ErrInvalidCredentials
	rec, _ = do(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"a@b.io","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	svc.err = apperrors.ErrUserBlocked
	rec, _ = do(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"a@b.io","password":"secret1"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	svc.err = apperrors.ErrTooManyRequests
	rec, _ = do(t, h, http.MethodPost, "/api/auth/login", "", `{"login":"a@b.io","password":"secret1"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMe(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	rec, body := do(t, h, http.MethodGet, "/api/auth/me", "sender", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, sender.ID, svc.meID)
	require.Equal(t, "Olena", body["data"].(map[string]any)["name"])

	rec, _ = do(t, h, http.MethodGet, "/api/auth/me", "bogus", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsers(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	rec, body := do(t, h, http.MethodGet, "/api/users?q=olena&page=1&limit=5", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "olena", svc.filter.Search)
	require.Equal(t, 5, svc.page.Limit)
	require.Equal(t, 1.0, body["data"].(map[string]any)["meta"].(map[string]any)["pages"])

	rec, _ = do(t, h, http.MethodGet, "/api/users", "sender", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBlockRoutes(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)
	id := uuid.New()

	rec, body := do(t, h, http.MethodPut, "/api/users/"+id.String()+"/block", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *svc.blocked)
	require.Equal(t, id, svc.blockedID)
	require.Equal(t, true, body["data"].(map[string]any)["isBlocked"])

	rec, _ = do(t, h, http.MethodPut, "/api/users/"+id.String()+"/unblock", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, *svc.blocked)

	rec, _ = do(t, h, http.MethodPatch, "/api/users/"+id.String()+"/block-status", "admin", `{"block":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *svc.blocked)

	rec, _ = do(t, h, http.MethodPatch, "/api/users/"+id.String()+"/block-status", "admin", `{"blocked":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = apperrors.Validation("you cannot block yourself")
	rec, body = do(t, h, http.MethodPut, "/api/users/"+admin.ID.String()+"/block", "admin", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "you cannot block yourself", body["message"])
}
