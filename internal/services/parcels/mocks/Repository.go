package mocks

import (
	context "context"

	models "github.com/BearBump/SwiftDrop/internal/models"
	pgparcels "github.com/BearBump/SwiftDrop/internal/storage/pgparcels"
	mock "github.com/stretchr/testify/mock"
	uuid "github.com/google/uuid"
)

// MockRepository is a mock type for the Repository type
type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) parcelResult(ret mock.Arguments, call func(fn any) (*models.Parcel, error, bool)) (*models.Parcel, error) {
	if p, err, ok := call(ret.Get(0)); ok {
		return p, err
	}
	var r0 *models.Parcel
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Parcel)
	}
	return r0, ret.Error(1)
}

// CreateParcel provides a mock function with given fields: ctx, trackingID, in, initial
func (_m *MockRepository) CreateParcel(ctx context.Context, trackingID string, in models.ParcelCreateInput, initial models.StatusLogEntry) (*models.Parcel, error) {
	ret := _m.Called(ctx, trackingID, in, initial)
	return _m.parcelResult(ret, func(fn any) (*models.Parcel, error, bool) {
		rf, ok := fn.(func(context.Context, string, models.ParcelCreateInput, models.StatusLogEntry) (*models.Parcel, error))
		if !ok {
			return nil, nil, false
		}
		p, err := rf(ctx, trackingID, in, initial)
		return p, err, true
	})
}

// GetParcelByID provides a mock function with given fields: ctx, id
func (_m *MockRepository) GetParcelByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	ret := _m.Called(ctx, id)
	return _m.parcelResult(ret, func(fn any) (*models.Parcel, error, bool) {
		rf, ok := fn.(func(context.Context, uuid.UUID) (*models.Parcel, error))
		if !ok {
			return nil, nil, false
		}
		p, err := rf(ctx, id)
		return p, err, true
	})
}

// GetParcelByTrackingID provides a mock function with given fields: ctx, trackingID
func (_m *MockRepository) GetParcelByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error) {
	ret := _m.Called(ctx, trackingID)
	return _m.parcelResult(ret, func(fn any) (*models.Parcel, error, bool) {
		rf, ok := fn.(func(context.Context, string) (*models.Parcel, error))
		if !ok {
			return nil, nil, false
		}
		p, err := rf(ctx, trackingID)
		return p, err, true
	})
}

// ApplyTransition provides a mock function with given fields: ctx, id, fn
func (_m *MockRepository) ApplyTransition(ctx context.Context, id uuid.UUID, fn pgparcels.TransitionFunc) (*models.Parcel, error) {
	ret := _m.Called(ctx, id, fn)
	return _m.parcelResult(ret, func(f any) (*models.Parcel, error, bool) {
		rf, ok := f.(func(context.Context, uuid.UUID, pgparcels.TransitionFunc) (*models.Parcel, error))
		if !ok {
			return nil, nil, false
		}
		p, err := rf(ctx, id, fn)
		return p, err, true
	})
}

// SetParcelBlocked provides a mock function with given fields: ctx, id, blocked
func (_m *MockRepository) SetParcelBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error) {
	ret := _m.Called(ctx, id, blocked)
	return _m.parcelResult(ret, func(any) (*models.Parcel, error, bool) { return nil, nil, false })
}

// ListParcels provides a mock function with given fields: ctx, f, page
func (_m *MockRepository) ListParcels(ctx context.Context, f models.ParcelFilter, page models.Page) (*models.ParcelList, error) {
	ret := _m.Called(ctx, f, page)

	var r0 *models.ParcelList
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ParcelList)
	}
	return r0, ret.Error(1)
}

// ListParcelSummaries provides a mock function with given fields: ctx, f
func (_m *MockRepository) ListParcelSummaries(ctx context.Context, f models.ParcelFilter) ([]models.ParcelSummary, error) {
	ret := _m.Called(ctx, f)

	var r0 []models.ParcelSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.ParcelSummary)
	}
	return r0, ret.Error(1)
}
