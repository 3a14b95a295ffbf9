package pgparcels

import (
	"strings"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

// mapError turns driver errors into domain errors: unique violations become
// *apperrors.DuplicateError, missing rows become NotFound(what). Everything
// else is wrapped with op.
func mapError(err error, op, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && what != "" {
		return apperrors.NotFound(what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &apperrors.DuplicateError{Field: duplicateField(pgErr.ConstraintName), Err: err}
	}
	return errors.Wrap(err, op)
}

func duplicateField(constraint string) string {
	switch constraint {
	case constraintUserEmail:
		return "email"
	case constraintUserShortID:
		return "short_id"
	case constraintParcelTracking:
		return "tracking_id"
	}
	return strings.TrimSuffix(constraint, "_key")
}

// likePattern escapes LIKE metacharacters and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
