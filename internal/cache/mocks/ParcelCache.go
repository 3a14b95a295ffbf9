package mocks

import (
	context "context"
	time "time"

	models "github.com/BearBump/SwiftDrop/internal/models"
	mock "github.com/stretchr/testify/mock"
)

// MockParcelCache is a mock type for the ParcelCache type
type MockParcelCache struct {
	mock.Mock
}

// GetParcel provides a mock function with given fields: ctx, trackingID
func (_m *MockParcelCache) GetParcel(ctx context.Context, trackingID string) (*models.Parcel, bool, error) {
	ret := _m.Called(ctx, trackingID)

	var r0 *models.Parcel
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Parcel)
	}
	return r0, ret.Bool(1), ret.Error(2)
}

// SetParcel provides a mock function with given fields: ctx, p, ttl
func (_m *MockParcelCache) SetParcel(ctx context.Context, p *models.Parcel, ttl time.Duration) error {
	ret := _m.Called(ctx, p, ttl)
	return ret.Error(0)
}
