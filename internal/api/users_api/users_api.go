package users_api

import (
	"context"
	"net/http"
	"strings"

	"github.com/BearBump/SwiftDrop/internal/api/httpx"
	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/BearBump/SwiftDrop/internal/services/users"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Service interface {
	Register(ctx context.Context, req users.RegisterRequest) (*users.AuthResult, error)
	Login(ctx context.Context, login, password string) (*users.AuthResult, error)
	Me(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, f models.UserFilter, page models.Page) (*models.UserList, error)
	SetBlocked(ctx context.Context, actor auth.Identity, id uuid.UUID, blocked bool) (*models.User, error)
}

type UsersAPI struct {
	svc Service
}

func New(svc Service) *UsersAPI {
	return &UsersAPI{svc: svc}
}

// Mount registers /api/auth and /api/users.
func (a *UsersAPI) Mount(r chi.Router, authn httpx.Authenticator) {
	requireAuth := httpx.RequireAuth(authn)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", a.Register)
		r.Post("/login", a.Login)
		r.With(requireAuth).Get("/me", a.Me)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(requireAuth, httpx.RequireRoles(models.RoleAdmin))
		r.Get("/", a.List)
		r.Put("/{id}/block", a.block(true))
		r.Put("/{id}/unblock", a.block(false))
		r.Patch("/{id}/block-status", a.BlockStatus)
	})
}

type registerRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role" validate:"omitempty,oneof=sender receiver"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
}

// loginRequest accepts the login under any of its historical field names.
type loginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	ShortID  string `json:"shortId"`
	Password string `json:"password" validate:"required"`
}

func (l loginRequest) loginID() string {
	for _, v := range []string{l.Login, l.Email, l.ShortID} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type blockRequest struct {
	Block *bool `json:"block" validate:"required"`
}

type userList struct {
	Items []*models.User `json:"items"`
	Meta  httpx.Meta     `json:"meta"`
}

func (a *UsersAPI) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := a.svc.Register(r.Context(), users.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, res)
}

func (a *UsersAPI) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	login := req.loginID()
	if login == "" {
		httpx.Error(w, r, apperrors.Validation("login is required"))
		return
	}
	res, err := a.svc.Login(r.Context(), login, req.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, res)
}

func (a *UsersAPI) Me(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Me(r.Context(), httpx.Identity(r).ID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, u)
}

func (a *UsersAPI) List(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	f := models.UserFilter{Search: strings.TrimSpace(r.URL.Query().Get("q"))}
	list, err := a.svc.List(r.Context(), f, page)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	items := list.Items
	if items == nil {
		items = []*models.User{}
	}
	httpx.OK(w, http.StatusOK, userList{Items: items, Meta: httpx.NewMeta(list.Total, page)})
}

func (a *UsersAPI) block(blocked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.setBlocked(w, r, blocked)
	}
}

func (a *UsersAPI) BlockStatus(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	a.setBlocked(w, r, *req.Block)
}

func (a *UsersAPI) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	u, err := a.svc.SetBlocked(r.Context(), httpx.Identity(r), id, blocked)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, u)
}
