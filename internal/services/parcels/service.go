package parcels

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/broker/messages"
	"github.com/BearBump/SwiftDrop/internal/cache"
	"github.com/BearBump/SwiftDrop/internal/ids"
	"github.com/BearBump/SwiftDrop/internal/lifecycle"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/BearBump/SwiftDrop/internal/storage/pgparcels"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Repository interface {
	CreateParcel(ctx context.Context, trackingID string, in models.ParcelCreateInput, initial models.StatusLogEntry) (*models.Parcel, error)
	GetParcelByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error)
	GetParcelByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, fn pgparcels.TransitionFunc) (*models.Parcel, error)
	SetParcelBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error)
	ListParcels(ctx context.Context, f models.ParcelFilter, page models.Page) (*models.ParcelList, error)
	ListParcelSummaries(ctx context.Context, f models.ParcelFilter) ([]models.ParcelSummary, error)
}

// UserDirectory is the slice of user storage parcels need.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByShortID(ctx context.Context, shortID string) (*models.User, error)
	CountUsers(ctx context.Context) (models.UserCounts, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Config struct {
	TrackingPrefix       string
	TrackingRandomLength int
	MaxAttempts          int
	CacheTTL             time.Duration
	Topic                string
}

type Service struct {
	repo  Repository
	users UserDirectory
	cache cache.ParcelCache
	pub   Publisher
	cfg   Config

	newTrackingID ids.Generator
	now           func() time.Time
}

// New wires the parcel service. cache and pub may be nil: caching and event
// publishing are then skipped.
func New(repo Repository, users UserDirectory, c cache.ParcelCache, pub Publisher, cfg Config) *Service {
	if cfg.TrackingPrefix == "" {
		cfg.TrackingPrefix = ids.DefaultTrackingPrefix
	}
	if cfg.TrackingRandomLength <= 0 {
		cfg.TrackingRandomLength = ids.DefaultTrackingRandomLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = ids.DefaultMaxAttempts
	}
	now := func() time.Time { return time.Now().UTC() }
	return &Service{
		repo:          repo,
		users:         users,
		cache:         c,
		pub:           pub,
		cfg:           cfg,
		newTrackingID: ids.TrackingIDGenerator(cfg.TrackingPrefix, cfg.TrackingRandomLength, now),
		now:           now,
	}
}

type CreateParcelRequest struct {
	// Receiver is the receiver's user id or short id.
	Receiver    string
	Origin      string
	Destination string
	Weight      *float64
	Price       *float64
	Note        *string
}

// CreateParcel registers a parcel sent by actor with a freshly allocated
// tracking id and the initial pending history entry.
func (s *Service) CreateParcel(ctx context.Context, actor auth.Identity, req CreateParcelRequest) (*models.Parcel, error) {
	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		return nil, apperrors.Validation("origin and destination are required")
	}
	if req.Weight != nil && *req.Weight < 0 {
		return nil, apperrors.Validation("weight must be non-negative")
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, apperrors.Validation("price must be non-negative")
	}

	receiver, err := s.resolveReceiver(ctx, req.Receiver)
	if err != nil {
		return nil, err
	}
	if receiver.ID == actor.ID {
		return nil, apperrors.Validation("receiver must be different from sender")
	}

	in := models.ParcelCreateInput{
		SenderID:    actor.ID,
		ReceiverID:  receiver.ID,
		Origin:      origin,
		Destination: destination,
		Weight:      req.Weight,
		Price:       req.Price,
		Note:        req.Note,
	}
	initial := lifecycle.Initial(actor.ID, req.Note, s.now())

	p, err := ids.AllocateUnique(ctx, ids.Allocation[*models.Parcel]{
		What:        "tracking id",
		MaxAttempts: s.cfg.MaxAttempts,
		Generate:    s.newTrackingID,
		Create: func(ctx context.Context, trackingID string) (*models.Parcel, error) {
			return s.repo.CreateParcel(ctx, trackingID, in, initial)
		},
		IsCollision: func(err error) bool { return apperrors.IsDuplicate(err, "tracking_id") },
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindAllocationExhausted {
			slog.Error("tracking id allocation exhausted", "sender_id", actor.ID, "err", err)
		}
		return nil, err
	}

	slog.Info("parcel created", "parcel_id", p.ID, "tracking_id", p.TrackingID, "sender_id", p.SenderID)
	s.afterChange(ctx, p, "")
	return p, nil
}

func (s *Service) resolveReceiver(ctx context.Context, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.Validation("receiver is required")
	}
	var (
		u   *models.User
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		u, err = s.users.GetUserByID(ctx, id)
	} else {
		u, err = s.users.GetUserByShortID(ctx, ref)
	}
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return nil, apperrors.NotFound("receiver")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateStatus applies an explicit status change. Any canonical status is
// accepted regardless of the current one.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Identity, id uuid.UUID, rawStatus string, note *string) (*models.Parcel, error) {
	target, err := lifecycle.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	var prev models.ParcelStatus
	p, err := s.repo.ApplyTransition(ctx, id, func(cur *models.Parcel) (models.StatusLogEntry, error) {
		if err := authorize(actor, cur); err != nil {
			return models.StatusLogEntry{}, err
		}
		prev = cur.Status
		return lifecycle.Transition(cur, target, &actor.ID, note, s.now())
	})
	if err != nil {
		return nil, err
	}

	slog.Info("parcel status updated", "parcel_id", p.ID, "from", prev, "to", p.Status, "actor_id", actor.ID)
	s.afterChange(ctx, p, prev)
	return p, nil
}

// CancelParcel moves a parcel to cancelled. Only pending and collected
// parcels can be cancelled.
func (s *Service) CancelParcel(ctx context.Context, actor auth.Identity, id uuid.UUID) (*models.Parcel, error) {
	var prev models.ParcelStatus
	p, err := s.repo.ApplyTransition(ctx, id, func(cur *models.Parcel) (models.StatusLogEntry, error) {
		if err := authorize(actor, cur); err != nil {
			return models.StatusLogEntry{}, err
		}
		prev = cur.Status
		return lifecycle.Cancel(cur, &actor.ID, s.now())
	})
	if err != nil {
		return nil, err
	}

	slog.Info("parcel cancelled", "parcel_id", p.ID, "from", prev, "actor_id", actor.ID)
	s.afterChange(ctx, p, prev)
	return p, nil
}

// SetBlocked freezes or unfreezes a parcel. A blocked parcel rejects status
// updates and cancellation.
func (s *Service) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error) {
	p, err := s.repo.SetParcelBlocked(ctx, id, blocked)
	if err != nil {
		return nil, err
	}
	slog.Info("parcel block changed", "parcel_id", p.ID, "blocked", blocked)
	s.refreshCache(ctx, p)
	return p, nil
}

// GetByTrackingID is the public tracking lookup. Cache failures count as misses.
func (s *Service) GetByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error) {
	trackingID = strings.ToUpper(strings.TrimSpace(trackingID))
	if trackingID == "" {
		return nil, apperrors.Validation("trackingId is required")
	}

	if s.cacheEnabled() {
		p, ok, err := s.cache.GetParcel(ctx, trackingID)
		if err != nil {
			slog.Warn("tracking cache get failed", "tracking_id", trackingID, "err", err)
		}
		if err == nil && ok {
			return p, nil
		}
	}

	p, err := s.repo.GetParcelByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	s.refreshCache(ctx, p)
	return p, nil
}

// GetByID returns a parcel visible to actor.
func (s *Service) GetByID(ctx context.Context, actor auth.Identity, id uuid.UUID) (*models.Parcel, error) {
	p, err := s.repo.GetParcelByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParcels pages through the parcels actor may see; senders and
// receivers are always narrowed to their own parcels.
func (s *Service) ListParcels(ctx context.Context, actor auth.Identity, f models.ParcelFilter, page models.Page) (*models.ParcelList, error) {
	return s.repo.ListParcels(ctx, scope(actor, f), NormalizePage(page))
}

// RefreshTracking reloads the parcel behind trackingID and rewrites its
// cache entry.
func (s *Service) RefreshTracking(ctx context.Context, trackingID string) (*models.Parcel, error) {
	if trackingID == "" {
		return nil, errors.New("tracking_id is required")
	}
	p, err := s.repo.GetParcelByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	s.refreshCache(ctx, p)
	return p, nil
}

func (s *Service) afterChange(ctx context.Context, p *models.Parcel, prev models.ParcelStatus) {
	s.refreshCache(ctx, p)
	s.publish(ctx, p, prev)
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.cfg.CacheTTL > 0
}

func (s *Service) refreshCache(ctx context.Context, p *models.Parcel) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.SetParcel(ctx, p, s.cfg.CacheTTL); err != nil {
		slog.Warn("tracking cache set failed", "tracking_id", p.TrackingID, "err", err)
	}
}

func (s *Service) publish(ctx context.Context, p *models.Parcel, prev models.ParcelStatus) {
	if s.pub == nil || s.cfg.Topic == "" {
		return
	}
	msg := messages.ParcelStatusChanged{
		ParcelID:   p.ID.String(),
		TrackingID: p.TrackingID,
		Status:     string(p.Status),
		Previous:   string(prev),
		ChangedAt:  p.UpdatedAt,
	}
	if last := p.LastLog(); last != nil {
		msg.ChangedAt = last.Timestamp
		msg.Note = last.Note
		if last.UpdatedBy != nil {
			a := last.UpdatedBy.String()
			msg.ActorID = &a
		}
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, s.cfg.Topic, []byte(p.TrackingID), b); err != nil {
		slog.Warn("publish parcel event failed", "tracking_id", p.TrackingID, "status", p.Status, "err", err)
	}
}

// authorize lets admins and couriers act on any parcel; senders and
// receivers only on their own.
func authorize(actor auth.Identity, p *models.Parcel) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleDelivery:
		return nil
	case models.RoleSender:
		if p.SenderID == actor.ID {
			return nil
		}
	case models.RoleReceiver:
		if p.ReceiverID == actor.ID {
			return nil
		}
	}
	return apperrors.Forbidden("not allowed to access this parcel")
}

func scope(actor auth.Identity, f models.ParcelFilter) models.ParcelFilter {
	id := actor.ID
	switch actor.Role {
	case models.RoleSender:
		f.SenderID = &id
	case models.RoleReceiver:
		f.ReceiverID = &id
	}
	return f
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	DefaultSort      = "-createdAt"
)

// NormalizePage clamps page >= 1 and limit to 1..100 (default 10).
func NormalizePage(p models.Page) models.Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Sort == "" {
		p.Sort = DefaultSort
	}
	return p
}
