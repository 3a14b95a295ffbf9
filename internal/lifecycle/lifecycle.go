// Package lifecycle holds the parcel status state machine and the
// append-only status history rules.
package lifecycle

import (
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
)

const (
	createdNote   = "Parcel created"
	cancelledNote = "Cancelled by user"
)

var canonical = []models.ParcelStatus{
	models.StatusPending,
	models.StatusCollected,
	models.StatusDispatched,
	models.StatusInTransit,
	models.StatusDelivered,
	models.StatusCancelled,
}

// Statuses returns the canonical statuses in normal progression order.
func Statuses() []models.ParcelStatus {
	out := make([]models.ParcelStatus, len(canonical))
	copy(out, canonical)
	return out
}

func IsCanonical(s models.ParcelStatus) bool {
	for _, c := range canonical {
		if c == s {
			return true
		}
	}
	return false
}

// ParseStatus normalizes caller input (case-insensitive, surrounding
// whitespace ignored) to a canonical status.
func ParseStatus(raw string) (models.ParcelStatus, error) {
	s := models.ParcelStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return "", apperrors.Validation("status is required")
	}
	if !IsCanonical(s) {
		return "", apperrors.Validation("invalid status %q, allowed: %s", raw, allowedList())
	}
	return s, nil
}

func allowedList() string {
	names := make([]string, 0, len(canonical))
	for _, c := range canonical {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func IsTerminal(s models.ParcelStatus) bool {
	return s == models.StatusDelivered || s == models.StatusCancelled
}

// CanCancel reports whether a parcel in status s has not been dispatched yet.
func CanCancel(s models.ParcelStatus) bool {
	return s == models.StatusPending || s == models.StatusCollected
}

// InTransitFamily covers the statuses the dashboards collapse into "in transit".
func InTransitFamily(s models.ParcelStatus) bool {
	switch s {
	case models.StatusCollected, models.StatusDispatched, models.StatusInTransit:
		return true
	}
	return false
}

// Initial returns the creation entry every new parcel starts with.
func Initial(actor uuid.UUID, note *string, at time.Time) models.StatusLogEntry {
	n := normalizeNote(note)
	if n == nil {
		def := createdNote
		n = &def
	}
	return models.StatusLogEntry{
		Status:    models.StatusPending,
		Timestamp: at.UTC(),
		UpdatedBy: &actor,
		Note:      n,
	}
}

// Transition validates an explicit status update of p to target and returns
// the history entry to append. Any canonical target is accepted regardless
// of the current status; only the cancel cutoff is enforced, by Cancel.
func Transition(p *models.Parcel, target models.ParcelStatus, actor *uuid.UUID, note *string, at time.Time) (models.StatusLogEntry, error) {
	if !IsCanonical(target) {
		return models.StatusLogEntry{}, apperrors.Validation("invalid status %q, allowed: %s", target, allowedList())
	}
	if p.IsBlocked {
		return models.StatusLogEntry{}, apperrors.ErrParcelBlocked
	}
	return models.StatusLogEntry{
		Status:    target,
		Timestamp: at.UTC(),
		UpdatedBy: actor,
		Note:      normalizeNote(note),
	}, nil
}

// Cancel validates cancellation of p: allowed only before dispatch.
func Cancel(p *models.Parcel, actor *uuid.UUID, at time.Time) (models.StatusLogEntry, error) {
	if p.IsBlocked {
		return models.StatusLogEntry{}, apperrors.ErrParcelBlocked
	}
	if p.Status == models.StatusCancelled {
		return models.StatusLogEntry{}, apperrors.ErrAlreadyCancelled
	}
	if !CanCancel(p.Status) {
		return models.StatusLogEntry{}, apperrors.ErrCannotCancel
	}
	note := cancelledNote
	return models.StatusLogEntry{
		Status:    models.StatusCancelled,
		Timestamp: at.UTC(),
		UpdatedBy: actor,
		Note:      &note,
	}, nil
}

// Append adds e as the newest history entry and makes it the current status.
// Existing entries are never touched.
func Append(p *models.Parcel, e models.StatusLogEntry) {
	p.StatusLogs = append(p.StatusLogs, e)
	p.Status = e.Status
	p.UpdatedAt = e.Timestamp
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	n := strings.TrimSpace(*note)
	if n == "" {
		return nil
	}
	return &n
}
