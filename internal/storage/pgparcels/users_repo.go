package pgparcels

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const userColumns = `id, name, email, role, short_id, is_blocked, phone, address, created_at, updated_at`

// CreateUser inserts a user. Email uniqueness and short id uniqueness are
// reported as *apperrors.DuplicateError with Field "email" / "short_id".
func (s *Storage) CreateUser(ctx context.Context, in models.UserCreateInput) (*models.User, error) {
	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     strings.ToLower(in.Email),
		Role:      in.Role,
		ShortID:   in.ShortID,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(ctx, `
INSERT INTO users (
  id, name, email, password_hash, role, short_id, is_blocked, phone, address, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,false,$7,$8,$9,$9)
`, u.ID, u.Name, u.Email, in.PasswordHash, u.Role, u.ShortID, u.Phone, u.Address, now)
	if err != nil {
		return nil, mapError(err, "insert user", "")
	}
	return u, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "select user", "user")
	}
	return u, nil
}

func (s *Storage) GetUserByShortID(ctx context.Context, shortID string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE short_id = $1`, shortID))
	if err != nil {
		return nil, mapError(err, "select user", "user")
	}
	return u, nil
}

// GetUserForLogin finds a user by email (case-insensitive) or short id and
// returns it with its password hash.
func (s *Storage) GetUserForLogin(ctx context.Context, login string) (*models.User, string, error) {
	login = strings.TrimSpace(login)
	row := s.db.QueryRow(ctx, `
SELECT `+userColumns+`, password_hash
FROM users
WHERE email = lower($1) OR short_id = $1
ORDER BY (email = lower($1)) DESC
LIMIT 1
`, login)

	var (
		u    models.User
		hash string
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.ShortID, &u.IsBlocked,
		&u.Phone, &u.Address, &u.CreatedAt, &u.UpdatedAt, &hash,
	); err != nil {
		return nil, "", mapError(err, "select user for login", "user")
	}
	return &u, hash, nil
}

func (s *Storage) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE short_id = $1)`, shortID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check short id")
	}
	return exists, nil
}

func (s *Storage) SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
UPDATE users SET is_blocked = $2, updated_at = now()
WHERE id = $1
RETURNING `+userColumns, id, blocked))
	if err != nil {
		return nil, mapError(err, "update user block", "user")
	}
	return u, nil
}

// ListUsers pages through users newest first; Search matches name, email
// and phone.
func (s *Storage) ListUsers(ctx context.Context, f models.UserFilter, page models.Page) (*models.UserList, error) {
	where := sq.And{}
	if q := strings.TrimSpace(f.Search); q != "" {
		pat := likePattern(q)
		where = append(where, sq.Or{
			sq.ILike{"name": pat},
			sq.ILike{"email": pat},
			sq.ILike{"phone": pat},
		})
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build count query")
	}
	var total int
	if err := s.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count users")
	}

	listSQL, args, err := psql.Select(userColumns).
		From("users").
		Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list query")
	}

	rows, err := s.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	out := &models.UserList{Items: []*models.User{}, Total: total}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out.Items = append(out.Items, u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) CountUsers(ctx context.Context) (models.UserCounts, error) {
	out := models.UserCounts{ByRole: map[models.Role]int{}}

	rows, err := s.db.Query(ctx, `
SELECT role, count(*), count(*) FILTER (WHERE is_blocked)
FROM users
GROUP BY role
`)
	if err != nil {
		return out, errors.Wrap(err, "count users")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role           models.Role
			total, blocked int
		)
		if err := rows.Scan(&role, &total, &blocked); err != nil {
			return out, errors.Wrap(err, "scan user counts")
		}
		out.ByRole[role] = total
		out.Total += total
		out.Blocked += blocked
	}
	if rows.Err() != nil {
		return out, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.ShortID, &u.IsBlocked,
		&u.Phone, &u.Address, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
