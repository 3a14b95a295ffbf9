package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/cache"
	"github.com/BearBump/SwiftDrop/internal/ids"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	CreateUser(ctx context.Context, in models.UserCreateInput) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserForLogin(ctx context.Context, login string) (*models.User, string, error)
	ShortIDExists(ctx context.Context, shortID string) (bool, error)
	ListUsers(ctx context.Context, f models.UserFilter, page models.Page) (*models.UserList, error)
	SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type TokenIssuer interface {
	Issue(u *models.User) (string, error)
	Verify(token string) (auth.Identity, error)
}

type Config struct {
	ShortIDLength int
	MaxAttempts   int
	LoginLimit    int64
	LoginWindow   time.Duration
}

const MinPasswordLength = 6

type Service struct {
	repo    Repository
	hasher  PasswordHasher
	tokens  TokenIssuer
	limiter cache.RateLimiter
	cfg     Config

	newShortID ids.Generator
}

// New wires the user service. limiter may be nil to disable login throttling.
func New(repo Repository, hasher PasswordHasher, tokens TokenIssuer, limiter cache.RateLimiter, cfg Config) *Service {
	if cfg.ShortIDLength <= 0 {
		cfg.ShortIDLength = ids.DefaultShortIDLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = ids.DefaultMaxAttempts
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = time.Minute
	}
	return &Service{
		repo:       repo,
		hasher:     hasher,
		tokens:     tokens,
		limiter:    limiter,
		cfg:        cfg,
		newShortID: ids.ShortIDGenerator(cfg.ShortIDLength),
	}
}

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
	Phone    *string
	Address  *string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register is public self-registration; only senders and receivers may sign up.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if req.Role == "" {
		req.Role = models.RoleSender
	}
	if req.Role != models.RoleSender && req.Role != models.RoleReceiver {
		return nil, apperrors.Validation("role must be sender or receiver")
	}
	u, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// CreateUser creates a user with any role. Used by operator tooling for
// admin and delivery accounts.
func (s *Service) CreateUser(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if !req.Role.Valid() {
		return nil, apperrors.Validation("invalid role %q", req.Role)
	}
	return s.create(ctx, req)
}

func (s *Service) create(ctx context.Context, req RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, apperrors.Validation("name and email are required")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperrors.Validation("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	in := models.UserCreateInput{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
		Address:      req.Address,
	}

	u, err := ids.AllocateUnique(ctx, ids.Allocation[*models.User]{
		What:        "short id",
		MaxAttempts: s.cfg.MaxAttempts,
		Generate:    s.newShortID,
		Exists:      s.repo.ShortIDExists,
		Create: func(ctx context.Context, shortID string) (*models.User, error) {
			withID := in
			withID.ShortID = &shortID
			return s.repo.CreateUser(ctx, withID)
		},
		IsCollision: func(err error) bool { return apperrors.IsDuplicate(err, "short_id") },
	})
	if apperrors.KindOf(err) == apperrors.KindAllocationExhausted {
		// short id необязателен: создаём пользователя без него.
		slog.Warn("short id allocation exhausted, creating user without it", "email", email, "err", err)
		u, err = s.repo.CreateUser(ctx, in)
	}
	if apperrors.IsDuplicate(err, "email") {
		return nil, apperrors.Conflict("email already registered")
	}
	if err != nil {
		return nil, err
	}

	slog.Info("user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login authenticates by email or short id.
func (s *Service) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperrors.Validation("login and password are required")
	}

	if s.limiter != nil && s.cfg.LoginLimit > 0 {
		allowed, n, err := s.limiter.Allow(ctx, "rl:login:"+strings.ToLower(login), s.cfg.LoginLimit, s.cfg.LoginWindow)
		if err != nil {
			slog.Warn("login rate limiter failed", "err", err)
		} else if !allowed {
			slog.Warn("login rate limited", "login", login, "attempts", n)
			return nil, apperrors.ErrTooManyRequests
		}
	}

	u, hash, err := s.repo.GetUserForLogin(ctx, login)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(hash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if u.IsBlocked {
		return nil, apperrors.ErrUserBlocked
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to the current, unblocked user.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Identity, *models.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, nil, &apperrors.Error{Kind: apperrors.KindUnauthorized, Message: "invalid or expired token", Err: err}
	}
	u, err := s.repo.GetUserByID(ctx, id.ID)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return auth.Identity{}, nil, apperrors.Unauthorized("user no longer exists")
	}
	if err != nil {
		return auth.Identity{}, nil, err
	}
	if u.IsBlocked {
		return auth.Identity{}, nil, apperrors.ErrUserBlocked
	}
	// роль берём из базы: токен мог быть выписан до смены роли.
	return auth.Identity{ID: u.ID, Role: u.Role}, u, nil
}

func (s *Service) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f models.UserFilter, page models.Page) (*models.UserList, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit <= 0 {
		page.Limit = 10
	}
	if page.Limit > 100 {
		page.Limit = 100
	}
	return s.repo.ListUsers(ctx, f, page)
}

func (s *Service) SetBlocked(ctx context.Context, actor auth.Identity, id uuid.UUID, blocked bool) (*models.User, error) {
	if blocked && actor.ID == id {
		return nil, apperrors.Validation("you cannot block yourself")
	}
	u, err := s.repo.SetUserBlocked(ctx, id, blocked)
	if err != nil {
		return nil, err
	}
	slog.Info("user block changed", "user_id", id, "blocked", blocked, "actor_id", actor.ID)
	return u, nil
}

func (s *Service) issue(u *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}
