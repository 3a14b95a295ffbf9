package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/BearBump/SwiftDrop/internal/services/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	created       users.RegisterRequest
	userBlocked   map[uuid.UUID]bool
	parcelBlocked map[uuid.UUID]bool
	err           error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{userBlocked: map[uuid.UUID]bool{}, parcelBlocked: map[uuid.UUID]bool{}}
}

func (f *fakeBackend) CreateUser(ctx context.Context, req users.RegisterRequest) (*models.User, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: uuid.New(), Name: req.Name, Email: req.Email, Role: req.Role}, nil
}

func (f *fakeBackend) SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.User, error) {
	f.userBlocked[id] = blocked
	return &models.User{ID: id, IsBlocked: blocked}, nil
}

func (f *fakeBackend) SetParcelBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error) {
	f.parcelBlocked[id] = blocked
	return &models.Parcel{ID: id, IsBlocked: blocked}, nil
}

func (f *fakeBackend) Track(ctx context.Context, trackingID string) (*models.Parcel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Parcel{TrackingID: trackingID, Status: models.StatusDispatched}, nil
}

func execute(t *testing.T, b *fakeBackend, args ...string) (string, int, error) {
	t.Helper()
	closed := 0
	var gotPath string
	cmd := newRootCmd(func(configPath string) (backend, func(), error) {
		gotPath = configPath
		return b, func() { closed++ }, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", "cfg.yaml"}, args...))
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		require.Equal(t, "cfg.yaml", gotPath)
	}
	return out.String(), closed, err
}

func TestUserCreate(t *testing.T) {
	b := newFakeBackend()
	out, closed, err := execute(t, b, "user", "create", "--name", "Ivan", "--email", "ivan@swiftdrop.io", "--password", "s3cret!", "--phone", "+380")
	require.NoError(t, err)
	require.Equal(t, 1, closed)
	require.Equal(t, models.RoleDelivery, b.created.Role)
	require.Equal(t, "+380", *b.created.Phone)
	require.Nil(t, b.created.Address)

	var u models.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	require.Equal(t, "ivan@swiftdrop.io", u.Email)
}

func TestUserCreate_RequiresFlagsAndSurfacesErrors(t *testing.T) {
	_, _, err := execute(t, newFakeBackend(), "user", "create", "--name", "Ivan")
	require.ErrorContains(t, err, "required flag")

	b := newFakeBackend()
	b.err = apperrors.Conflict("email already registered")
	_, closed, err := execute(t, b, "user", "create", "--name", "A", "--email", "a@b.io", "--password", "secret1", "--role", "admin")
	require.EqualError(t, err, "email already registered")
	require.Equal(t, models.RoleAdmin, b.created.Role)
	require.Equal(t, 1, closed)
}

func TestBlockCommands(t *testing.T) {
	b := newFakeBackend()
	userID, parcelID := uuid.New(), uuid.New()

	_, _, err := execute(t, b, "user", "block", userID.String())
	require.NoError(t, err)
	require.True(t, b.userBlocked[userID])

	_, _, err = execute(t, b, "user", "unblock", userID.String())
	require.NoError(t, err)
	require.False(t, b.userBlocked[userID])

	out, _, err := execute(t, b, "parcel", "block", parcelID.String())
	require.NoError(t, err)
	require.True(t, b.parcelBlocked[parcelID])
	require.Contains(t, out, `"isBlocked": true`)

	_, _, err = execute(t, b, "parcel", "unblock", "not-a-uuid")
	require.ErrorContains(t, err, "invalid id")
}

func TestParcelTrack(t *testing.T) {
	out, _, err := execute(t, newFakeBackend(), "parcel", "track", "SD250310ABC123")
	require.NoError(t, err)
	require.Contains(t, out, `"trackingId": "SD250310ABC123"`)
	require.Contains(t, out, `"status": "dispatched"`)

	_, _, err = execute(t, newFakeBackend(), "parcel", "track")
	require.Error(t, err)
}
