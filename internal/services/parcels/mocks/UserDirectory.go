package mocks

import (
	context "context"

	models "github.com/BearBump/SwiftDrop/internal/models"
	mock "github.com/stretchr/testify/mock"
	uuid "github.com/google/uuid"
)

// MockUserDirectory is a mock type for the UserDirectory type
type MockUserDirectory struct {
	mock.Mock
}

// GetUserByID provides a mock function with given fields: ctx, id
func (_m *MockUserDirectory) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}
	return r0, ret.Error(1)
}

// GetUserByShortID provides a mock function with given fields: ctx, shortID
func (_m *MockUserDirectory) GetUserByShortID(ctx context.Context, shortID string) (*models.User, error) {
	ret := _m.Called(ctx, shortID)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}
	return r0, ret.Error(1)
}

// CountUsers provides a mock function with given fields: ctx
func (_m *MockUserDirectory) CountUsers(ctx context.Context) (models.UserCounts, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(models.UserCounts), ret.Error(1)
}
