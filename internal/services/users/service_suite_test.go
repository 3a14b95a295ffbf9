package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/auth"
	cachemocks "github.com/BearBump/SwiftDrop/internal/cache/mocks"
	"github.com/BearBump/SwiftDrop/internal/ids"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	usersmocks "github.com/BearBump/SwiftDrop/internal/services/users/mocks"
)

type ServiceSuite struct {
	suite.Suite

	repo    *usersmocks.MockRepository
	limiter *cachemocks.MockRateLimiter
	hasher  *auth.BcryptHasher
	tokens  *auth.TokenIssuer
	svc     *Service
}

func (s *ServiceSuite) SetupTest() {
	s.repo = &usersmocks.MockRepository{}
	s.limiter = &cachemocks.MockRateLimiter{}
	s.hasher = auth.NewBcryptHasher(bcrypt.MinCost)
	s.tokens = auth.NewTokenIssuer("test-secret", time.Hour)
	s.svc = New(s.repo, s.hasher, s.tokens, s.limiter, Config{LoginLimit: 3, LoginWindow: time.Minute})
}

func echoCreate(_ context.Context, in models.UserCreateInput) (*models.User, error) {
	return &models.User{ID: uuid.New(), Name: in.Name, Email: in.Email, Role: in.Role, ShortID: in.ShortID}, nil
}

func (s *ServiceSuite) TestRegister_AssignsShortIDAndToken() {
	s.repo.On("ShortIDExists", mock.Anything, mock.Anything).Return(true, nil).Once()
	s.repo.On("ShortIDExists", mock.Anything, mock.Anything).Return(false, nil).Once()
	s.repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(in models.UserCreateInput) bool {
		return in.Email == "ann@example.com" && in.ShortID != nil && len(*in.ShortID) == ids.DefaultShortIDLength &&
			s.hasher.Verify(in.PasswordHash, "secret1")
	})).Return(echoCreate, nil).Once()

	res, err := s.svc.Register(context.Background(), RegisterRequest{
		Name: " Ann ", Email: " Ann@Example.com ", Password: "secret1", Role: models.RoleReceiver,
	})
	s.Require().NoError(err)
	s.Require().Equal("Ann", res.User.Name)
	s.Require().NotNil(res.User.ShortID)

	id, err := s.tokens.Verify(res.Token)
	s.Require().NoError(err)
	s.Require().Equal(res.User.ID, id.ID)
	s.Require().Equal(models.RoleReceiver, id.Role)
	s.repo.AssertNumberOfCalls(s.T(), "ShortIDExists", 2)
}

func (s *ServiceSuite) TestRegister_ShortIDExhaustedStillCreatesUser() {
	s.repo.On("ShortIDExists", mock.Anything, mock.Anything).Return(true, nil).Times(ids.DefaultMaxAttempts)
	s.repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(in models.UserCreateInput) bool {
		return in.ShortID == nil
	})).Return(echoCreate, nil).Once()

	res, err := s.svc.Register(context.Background(), RegisterRequest{
		Name: "Bob", Email: "bob@example.com", Password: "secret1",
	})
	s.Require().NoError(err)
	s.Require().Nil(res.User.ShortID)
	s.Require().Equal(models.RoleSender, res.User.Role)
}

func (s *ServiceSuite) TestRegister_ShortIDRaceRetried() {
	s.repo.On("ShortIDExists", mock.Anything, mock.Anything).Return(false, nil)
	s.repo.On("CreateUser", mock.Anything, mock.Anything).
		Return(nil, &apperrors.DuplicateError{Field: "short_id", Err: errors.New("23505")}).Once()
	s.repo.On("CreateUser", mock.Anything, mock.Anything).Return(echoCreate, nil).Once()

	res, err := s.svc.Register(context.Background(), RegisterRequest{
		Name: "Cy", Email: "cy@example.com", Password: "secret1",
	})
	s.Require().NoError(err)
	s.Require().NotNil(res.User.ShortID)
	s.repo.AssertNumberOfCalls(s.T(), "CreateUser", 2)
}

func (s *ServiceSuite) TestRegister_DuplicateEmail() {
	s.repo.On("ShortIDExists", mock.Anything, mock.Anything).Return(false, nil)
	s.repo.On("CreateUser", mock.Anything, mock.Anything).
		Return(nil, &apperrors.DuplicateError{Field: "email", Err: errors.New("23505")}).Once()

	_, err := s.svc.Register(context.Background(), RegisterRequest{
		Name: "Dee", Email: "dee@example.com", Password: "secret1",
	})
	s.Require().Equal(apperrors.KindConflict, apperrors.KindOf(err))
	s.repo.AssertNumberOfCalls(s.T(), "CreateUser", 1)
}

func (s *ServiceSuite) TestRegister_Validation() {
	ctx := context.Background()
	_, err := s.svc.Register(ctx, RegisterRequest{Name: "A", Email: "a@b.c", Password: "secret1", Role: models.RoleAdmin})
	s.Require().Equal(apperrors.KindValidation, apperrors.KindOf(err))

	_, err = s.svc.Register(ctx, RegisterRequest{Name: "A", Email: "a@b.c", Password: "123"})
	s.Require().Equal(apperrors.KindValidation, apperrors.KindOf(err))

	_, err = s.svc.Register(ctx, RegisterRequest{Name: " ", Email: "a@b.c", Password: "secret1"})
	s.Require().Equal(apperrors.KindValidation, apperrors.KindOf(err))

	s.repo.AssertNotCalled(s.T(), "CreateUser", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestCreateUser_PrivilegedRoles() {
	s.repo.On("ShortIDExists", mock.Anything, mock.Anything).Return(false, nil)
	s.repo.On("CreateUser", mock.Anything, mock.Anything).Return(echoCreate, nil)

	u, err := s.svc.CreateUser(context.Background(), RegisterRequest{
		Name: "Root", Email: "root@example.com", Password: "secret1", Role: models.RoleAdmin,
	})
	s.Require().NoError(err)
	s.Require().Equal(models.RoleAdmin, u.Role)

	_, err = s.svc.CreateUser(context.Background(), RegisterRequest{
		Name: "X", Email: "x@example.com", Password: "secret1", Role: "superuser",
	})
	s.Require().Equal(apperrors.KindValidation, apperrors.KindOf(err))
}

func (s *ServiceSuite) loginUser(blocked bool) *models.User {
	hash, err := s.hasher.Hash("secret1")
	s.Require().NoError(err)
	u := &models.User{ID: uuid.New(), Email: "eve@example.com", Role: models.RoleSender, IsBlocked: blocked}
	s.repo.On("GetUserForLogin", mock.Anything, "eve@example.com").Return(u, hash, nil)
	return u
}

func (s *ServiceSuite) TestLogin() {
	u := s.loginUser(false)
	s.limiter.On("Allow", mock.Anything, "rl:login:eve@example.com", int64(3), time.Minute).Return(true, int64(1), nil)

	res, err := s.svc.Login(context.Background(), "eve@example.com", "secret1")
	s.Require().NoError(err)
	s.Require().Equal(u.ID, res.User.ID)

	_, err = s.svc.Login(context.Background(), "eve@example.com", "wrong")
	s.Require().ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLogin_UnknownUser() {
	s.limiter.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, int64(1), nil)
	s.repo.On("GetUserForLogin", mock.Anything, "Zz000000").Return(nil, "", apperrors.NotFound("user"))

	_, err := s.svc.Login(context.Background(), "Zz000000", "secret1")
	s.Require().ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLogin_Blocked() {
	s.loginUser(true)
	s.limiter.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, int64(1), nil)

	_, err := s.svc.Login(context.Background(), "eve@example.com", "secret1")
	s.Require().ErrorIs(err, apperrors.ErrUserBlocked)
}

func (s *ServiceSuite) TestLogin_RateLimited() {
	s.limiter.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, int64(4), nil)

	_, err := s.svc.Login(context.Background(), "EVE@example.com", "secret1")
	s.Require().ErrorIs(err, apperrors.ErrTooManyRequests)
	s.repo.AssertNotCalled(s.T(), "GetUserForLogin", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestLogin_LimiterDownFailsOpen() {
	s.loginUser(false)
	s.limiter.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, int64(0), errors.New("redis down"))

	_, err := s.svc.Login(context.Background(), "eve@example.com", "secret1")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestAuthenticate() {
	u := &models.User{ID: uuid.New(), Role: models.RoleDelivery}
	token, err := s.tokens.Issue(&models.User{ID: u.ID, Role: models.RoleSender})
	s.Require().NoError(err)
	s.repo.On("GetUserByID", mock.Anything, u.ID).Return(u, nil).Once()

	id, got, err := s.svc.Authenticate(context.Background(), "Bearer "+token)
	s.Require().NoError(err)
	s.Require().Same(u, got)
	s.Require().Equal(models.RoleDelivery, id.Role)

	u.IsBlocked = true
	s.repo.On("GetUserByID", mock.Anything, u.ID).Return(u, nil).Once()
	_, _, err = s.svc.Authenticate(context.Background(), token)
	s.Require().ErrorIs(err, apperrors.ErrUserBlocked)

	_, _, err = s.svc.Authenticate(context.Background(), strings.Repeat("x", 20))
	s.Require().Equal(apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func (s *ServiceSuite) TestSetBlocked() {
	admin := auth.Identity{ID: uuid.New(), Role: models.RoleAdmin}
	_, err := s.svc.SetBlocked(context.Background(), admin, admin.ID, true)
	s.Require().Equal(apperrors.KindValidation, apperrors.KindOf(err))

	target := uuid.New()
	s.repo.On("SetUserBlocked", mock.Anything, target, true).Return(&models.User{ID: target, IsBlocked: true}, nil).Once()
	u, err := s.svc.SetBlocked(context.Background(), admin, target, true)
	s.Require().NoError(err)
	s.Require().True(u.IsBlocked)
}

func (s *ServiceSuite) TestList_ClampsPage() {
	s.repo.On("ListUsers", mock.Anything, models.UserFilter{Search: "ann"}, models.Page{Page: 1, Limit: 100}).
		Return(&models.UserList{Items: []*models.User{}}, nil).Once()

	_, err := s.svc.List(context.Background(), models.UserFilter{Search: "ann"}, models.Page{Page: -2, Limit: 1000})
	s.Require().NoError(err)
	s.repo.AssertExpectations(s.T())
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
