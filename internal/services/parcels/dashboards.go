package parcels

import (
	"context"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/dashboard"
	"github.com/BearBump/SwiftDrop/internal/models"
)

// GlobalSummary aggregates every parcel in the system.
func (s *Service) GlobalSummary(ctx context.Context) (models.GlobalStats, error) {
	ps, err := s.repo.ListParcelSummaries(ctx, models.ParcelFilter{})
	if err != nil {
		return models.GlobalStats{}, err
	}
	return dashboard.Global(ps, s.now()), nil
}

// Summary is GlobalSummary over the parcels actor may see.
func (s *Service) Summary(ctx context.Context, actor auth.Identity) (models.GlobalStats, error) {
	ps, err := s.repo.ListParcelSummaries(ctx, scope(actor, models.ParcelFilter{}))
	if err != nil {
		return models.GlobalStats{}, err
	}
	return dashboard.Global(ps, s.now()), nil
}

func (s *Service) ReceiverStats(ctx context.Context, actor auth.Identity) (models.ReceiverStats, error) {
	if actor.Role != models.RoleReceiver {
		return models.ReceiverStats{}, apperrors.Forbidden("receiver dashboard is only available to receivers")
	}
	id := actor.ID
	ps, err := s.repo.ListParcelSummaries(ctx, models.ParcelFilter{ReceiverID: &id})
	if err != nil {
		return models.ReceiverStats{}, err
	}
	return dashboard.Receiver(actor.ID, ps, s.now()), nil
}

func (s *Service) AdminStats(ctx context.Context) (models.AdminStats, error) {
	parcels, err := s.GlobalSummary(ctx)
	if err != nil {
		return models.AdminStats{}, err
	}
	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return models.AdminStats{}, err
	}
	return models.AdminStats{Parcels: parcels, Users: users}, nil
}
