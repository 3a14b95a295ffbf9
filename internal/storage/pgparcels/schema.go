package pgparcels

import (
	"context"

	"github.com/pkg/errors"
)

// Имена unique-констрейнтов завязаны на mapError: по ним определяется поле дубликата.
const (
	constraintUserEmail      = "users_email_key"
	constraintUserShortID    = "users_short_id_key"
	constraintParcelTracking = "parcels_tracking_id_key"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS users (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  short_id TEXT NULL,
  is_blocked BOOLEAN NOT NULL DEFAULT false,
  phone TEXT NULL,
  address TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  CONSTRAINT ` + constraintUserEmail + ` UNIQUE (email),
  CONSTRAINT ` + constraintUserShortID + ` UNIQUE (short_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS parcels (
  id UUID PRIMARY KEY,
  tracking_id TEXT NOT NULL,
  sender_id UUID NOT NULL REFERENCES users(id),
  receiver_id UUID NOT NULL REFERENCES users(id),
  origin TEXT NOT NULL,
  destination TEXT NOT NULL,
  weight DOUBLE PRECISION NULL,
  price DOUBLE PRECISION NULL,
  status TEXT NOT NULL,
  is_blocked BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  CONSTRAINT ` + constraintParcelTracking + ` UNIQUE (tracking_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_sender_id ON parcels(sender_id)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_receiver_id ON parcels(receiver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_created_at ON parcels(created_at DESC)`,
		// История статусов: append-only, порядок задаёт seq внутри посылки.
		`
CREATE TABLE IF NOT EXISTS parcel_status_logs (
  parcel_id UUID NOT NULL REFERENCES parcels(id) ON DELETE CASCADE,
  seq INT NOT NULL,
  status TEXT NOT NULL,
  at TIMESTAMPTZ NOT NULL,
  actor_id UUID NULL,
  note TEXT NULL,
  PRIMARY KEY (parcel_id, seq)
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
