package mocks

import (
	context "context"
	time "time"

	mock "github.com/stretchr/testify/mock"
)

// MockRateLimiter is a mock type for the RateLimiter type
type MockRateLimiter struct {
	mock.Mock
}

// Allow provides a mock function with given fields: ctx, key, limit, window
func (_m *MockRateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	ret := _m.Called(ctx, key, limit, window)
	return ret.Bool(0), ret.Get(1).(int64), ret.Error(2)
}
