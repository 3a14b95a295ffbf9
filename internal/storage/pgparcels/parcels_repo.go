package pgparcels

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/BearBump/SwiftDrop/internal/lifecycle"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const parcelColumns = `id, tracking_id, sender_id, receiver_id, origin, destination,
  weight, price, status, is_blocked, created_at, updated_at`

// TransitionFunc validates a status change against the locked, fully loaded
// parcel and returns the history entry to append.
type TransitionFunc func(p *models.Parcel) (models.StatusLogEntry, error)

// CreateParcel inserts the parcel and its first history entry atomically.
// A tracking id collision surfaces as *apperrors.DuplicateError{Field: "tracking_id"}.
func (s *Storage) CreateParcel(ctx context.Context, trackingID string, in models.ParcelCreateInput, initial models.StatusLogEntry) (*models.Parcel, error) {
	at := initial.Timestamp.UTC()
	p := &models.Parcel{
		ID:          uuid.New(),
		TrackingID:  trackingID,
		SenderID:    in.SenderID,
		ReceiverID:  in.ReceiverID,
		Origin:      in.Origin,
		Destination: in.Destination,
		Weight:      in.Weight,
		Price:       in.Price,
		CreatedAt:   at,
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO parcels (
  id, tracking_id, sender_id, receiver_id, origin, destination,
  weight, price, status, is_blocked, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,false,$10,$10)
`, p.ID, p.TrackingID, p.SenderID, p.ReceiverID, p.Origin, p.Destination,
		p.Weight, p.Price, initial.Status, at)
	if err != nil {
		return nil, mapError(err, "insert parcel", "")
	}
	if err := insertLog(ctx, tx, p.ID, 1, initial); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	lifecycle.Append(p, initial)
	return p, nil
}

func (s *Storage) GetParcelByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	return s.getParcel(ctx, "id", id)
}

func (s *Storage) GetParcelByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error) {
	return s.getParcel(ctx, "tracking_id", strings.ToUpper(strings.TrimSpace(trackingID)))
}

func (s *Storage) getParcel(ctx context.Context, column string, key any) (*models.Parcel, error) {
	p, err := scanParcel(s.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE `+column+` = $1`, key))
	if err != nil {
		return nil, mapError(err, "select parcel", "parcel")
	}
	logs, err := loadLogs(ctx, s.db, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.StatusLogs = nonNilLogs(logs[p.ID])
	return p, nil
}

// ApplyTransition is the per-parcel critical section: the row is locked with
// FOR UPDATE, fn sees the current status and history, and the status update
// plus the new history row commit together. Concurrent transitions of the
// same parcel are serialized; none of them can lose another's entry.
func (s *Storage) ApplyTransition(ctx context.Context, id uuid.UUID, fn TransitionFunc) (*models.Parcel, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanParcel(tx.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err, "lock parcel", "parcel")
	}
	logs, err := loadLogs(ctx, tx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.StatusLogs = nonNilLogs(logs[p.ID])

	entry, err := fn(p)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE parcels SET status = $2, updated_at = $3 WHERE id = $1`,
		p.ID, entry.Status, entry.Timestamp.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "update parcel status")
	}
	if err := insertLog(ctx, tx, p.ID, len(p.StatusLogs)+1, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	lifecycle.Append(p, entry)
	return p, nil
}

func (s *Storage) SetParcelBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error) {
	tag, err := s.db.Exec(ctx, `UPDATE parcels SET is_blocked = $2, updated_at = now() WHERE id = $1`, id, blocked)
	if err != nil {
		return nil, errors.Wrap(err, "update parcel block")
	}
	if tag.RowsAffected() == 0 {
		return nil, mapError(pgx.ErrNoRows, "", "parcel")
	}
	return s.GetParcelByID(ctx, id)
}

// ListParcels returns one page of parcels with their histories.
func (s *Storage) ListParcels(ctx context.Context, f models.ParcelFilter, page models.Page) (*models.ParcelList, error) {
	where := parcelConditions(f)

	countSQL, countArgs, err := psql.Select("count(*)").From("parcels").Where(where).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build count query")
	}
	var total int
	if err := s.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count parcels")
	}

	q := psql.Select(parcelColumns).
		From("parcels").
		Where(where).
		OrderBy(parcelOrder(page.Sort), "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset()))
	listSQL, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list query")
	}

	rows, err := s.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select parcels")
	}
	defer rows.Close()

	out := &models.ParcelList{Items: []*models.Parcel{}, Total: total}
	ids := make([]uuid.UUID, 0, page.Limit)
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan parcel")
		}
		out.Items = append(out.Items, p)
		ids = append(ids, p.ID)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	rows.Close()

	logs, err := loadLogs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range out.Items {
		p.StatusLogs = nonNilLogs(logs[p.ID])
	}
	return out, nil
}

// ListParcelSummaries returns the dashboard projection of every parcel
// matching f, including the actor of the latest history entry.
func (s *Storage) ListParcelSummaries(ctx context.Context, f models.ParcelFilter) ([]models.ParcelSummary, error) {
	q := psql.Select(
		"p.id", "p.sender_id", "p.receiver_id", "p.status", "p.created_at", "p.updated_at",
		"(SELECT l.actor_id FROM parcel_status_logs l WHERE l.parcel_id = p.id ORDER BY l.seq DESC LIMIT 1)",
	).
		From("parcels p").
		Where(parcelConditions(f))
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build summary query")
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select parcel summaries")
	}
	defer rows.Close()

	var out []models.ParcelSummary
	for rows.Next() {
		var ps models.ParcelSummary
		if err := rows.Scan(&ps.ID, &ps.SenderID, &ps.ReceiverID, &ps.Status, &ps.CreatedAt, &ps.UpdatedAt, &ps.LastActorID); err != nil {
			return nil, errors.Wrap(err, "scan parcel summary")
		}
		out = append(out, ps)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func parcelConditions(f models.ParcelFilter) sq.And {
	where := sq.And{}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.SenderID != nil {
		where = append(where, sq.Eq{"sender_id": *f.SenderID})
	}
	if f.ReceiverID != nil {
		where = append(where, sq.Eq{"receiver_id": *f.ReceiverID})
	}
	if f.TrackingID != "" {
		where = append(where, sq.Eq{"tracking_id": strings.ToUpper(strings.TrimSpace(f.TrackingID))})
	}
	if f.Search != "" {
		pat := likePattern(f.Search)
		where = append(where, sq.Or{
			sq.ILike{"tracking_id": pat},
			sq.ILike{"origin": pat},
			sq.ILike{"destination": pat},
		})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"created_at": f.From.UTC()})
	}
	if f.To != nil {
		where = append(where, sq.LtOrEq{"created_at": f.To.UTC()})
	}
	return where
}

var parcelSortColumns = map[string]string{
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"status":     "status",
	"trackingId": "tracking_id",
}

// parcelOrder maps "[-]field" to an ORDER BY clause; unknown fields fall
// back to newest first.
func parcelOrder(sort string) string {
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = sort[1:]
	}
	col, ok := parcelSortColumns[sort]
	if !ok {
		return "created_at DESC"
	}
	return col + " " + dir
}

func scanParcel(row pgx.Row) (*models.Parcel, error) {
	var p models.Parcel
	if err := row.Scan(
		&p.ID, &p.TrackingID, &p.SenderID, &p.ReceiverID, &p.Origin, &p.Destination,
		&p.Weight, &p.Price, &p.Status, &p.IsBlocked, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func insertLog(ctx context.Context, q querier, parcelID uuid.UUID, seq int, e models.StatusLogEntry) error {
	_, err := q.Exec(ctx, `
INSERT INTO parcel_status_logs (parcel_id, seq, status, at, actor_id, note)
VALUES ($1,$2,$3,$4,$5,$6)
`, parcelID, seq, e.Status, e.Timestamp.UTC(), e.UpdatedBy, e.Note)
	return errors.Wrap(err, "insert status log")
}

func loadLogs(ctx context.Context, q querier, ids []uuid.UUID) (map[uuid.UUID][]models.StatusLogEntry, error) {
	out := make(map[uuid.UUID][]models.StatusLogEntry, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
SELECT parcel_id, status, at, actor_id, note
FROM parcel_status_logs
WHERE parcel_id = ANY($1)
ORDER BY parcel_id, seq ASC
`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "select status logs")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			parcelID uuid.UUID
			e        models.StatusLogEntry
			at       time.Time
		)
		if err := rows.Scan(&parcelID, &e.Status, &at, &e.UpdatedBy, &e.Note); err != nil {
			return nil, errors.Wrap(err, "scan status log")
		}
		e.Timestamp = at.UTC()
		out[parcelID] = append(out[parcelID], e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func nonNilLogs(l []models.StatusLogEntry) []models.StatusLogEntry {
	if l == nil {
		return []models.StatusLogEntry{}
	}
	return l
}
