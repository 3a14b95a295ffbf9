package pgparcels

import (
	"testing"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	dup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintParcelTracking}
	err := mapError(dup, "insert parcel", "")
	require.True(t, apperrors.IsDuplicate(err, "tracking_id"))

	err = mapError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintUserShortID}, "insert user", "")
	require.True(t, apperrors.IsDuplicate(err, "short_id"))
	require.False(t, apperrors.IsDuplicate(err, "email"))

	err = mapError(pgx.ErrNoRows, "select parcel", "parcel")
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	require.Equal(t, "parcel not found", err.Error())

	err = mapError(errors.New("conn reset"), "select parcel", "parcel")
	require.Equal(t, apperrors.KindUnknown, apperrors.KindOf(err))
	require.Contains(t, err.Error(), "select parcel")

	require.NoError(t, mapError(nil, "x", "y"))
}

func TestLikePattern(t *testing.T) {
	require.Equal(t, `%abc%`, likePattern("abc"))
	require.Equal(t, `%50\%\_off\\%`, likePattern(`50%_off\`))
}

func TestParcelOrder(t *testing.T) {
	require.Equal(t, "created_at DESC", parcelOrder(""))
	require.Equal(t, "created_at DESC", parcelOrder("-createdAt"))
	require.Equal(t, "updated_at ASC", parcelOrder("updatedAt"))
	require.Equal(t, "tracking_id DESC", parcelOrder("-trackingId"))
	require.Equal(t, "created_at DESC", parcelOrder("password"))
}

func TestParcelConditions(t *testing.T) {
	sql, args, err := psql.Select("id").From("parcels").Where(parcelConditions(models.ParcelFilter{})).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT id FROM parcels WHERE (1=1)", sql)
	require.Empty(t, args)

	sender := uuid.New()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sql, args, err = psql.Select("id").From("parcels").Where(parcelConditions(models.ParcelFilter{
		Status:   models.StatusPending,
		SenderID: &sender,
		Search:   "kyiv",
		From:     &from,
	})).ToSql()
	require.NoError(t, err)
	require.Contains(t, sql, "status = $1")
	require.Contains(t, sql, "sender_id = $2")
	require.Contains(t, sql, "tracking_id ILIKE $3 OR origin ILIKE $4 OR destination ILIKE $5")
	require.Contains(t, sql, "created_at >= $6")
	require.Len(t, args, 6)
	require.Equal(t, "%kyiv%", args[2])
}

func TestParcelConditions_TrackingIDExact(t *testing.T) {
	sql, args, err := psql.Select("id").From("parcels").Where(parcelConditions(models.ParcelFilter{
		TrackingID: " sd-20250310-ab12 ",
	})).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT id FROM parcels WHERE (tracking_id = $1)", sql)
	require.Equal(t, []interface{}{"SD-20250310-AB12"}, args)
	require.NotContains(t, sql, "ILIKE")
}
