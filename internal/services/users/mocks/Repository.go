package mocks

import (
	context "context"

	models "github.com/BearBump/SwiftDrop/internal/models"
	mock "github.com/stretchr/testify/mock"
	uuid "github.com/google/uuid"
)

// MockRepository is a mock type for the Repository type
type MockRepository struct {
	mock.Mock
}

// CreateUser provides a mock function with given fields: ctx, in
func (_m *MockRepository) CreateUser(ctx context.Context, in models.UserCreateInput) (*models.User, error) {
	ret := _m.Called(ctx, in)

	if rf, ok := ret.Get(0).(func(context.Context, models.UserCreateInput) (*models.User, error)); ok {
		return rf(ctx, in)
	}
	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}
	return r0, ret.Error(1)
}

// GetUserByID provides a mock function with given fields: ctx, id
func (_m *MockRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}
	return r0, ret.Error(1)
}

// GetUserForLogin provides a mock function with given fields: ctx, login
func (_m *MockRepository) GetUserForLogin(ctx context.Context, login string) (*models.User, string, error) {
	ret := _m.Called(ctx, login)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}
	return r0, ret.String(1), ret.Error(2)
}

// ShortIDExists provides a mock function with given fields: ctx, shortID
func (_m *MockRepository) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	ret := _m.Called(ctx, shortID)
	return ret.Bool(0), ret.Error(1)
}

// ListUsers provides a mock function with given fields: ctx, f, page
func (_m *MockRepository) ListUsers(ctx context.Context, f models.UserFilter, page models.Page) (*models.UserList, error) {
	ret := _m.Called(ctx, f, page)

	var r0 *models.UserList
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.UserList)
	}
	return r0, ret.Error(1)
}

// SetUserBlocked provides a mock function with given fields: ctx, id, blocked
func (_m *MockRepository) SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.User, error) {
	ret := _m.Called(ctx, id, blocked)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}
	return r0, ret.Error(1)
}
