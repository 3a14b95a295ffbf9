package models

import (
	"time"

	"github.com/google/uuid"
)

type ParcelStatus string

// Канонические статусы посылки, в порядке нормального движения.
const (
	StatusPending    ParcelStatus = "pending"
	StatusCollected  ParcelStatus = "collected"
	StatusDispatched ParcelStatus = "dispatched"
	StatusInTransit  ParcelStatus = "in_transit"
	StatusDelivered  ParcelStatus = "delivered"
	StatusCancelled  ParcelStatus = "cancelled"
)

type Parcel struct {
	ID          uuid.UUID        `json:"id"`
	TrackingID  string           `json:"trackingId"`
	SenderID    uuid.UUID        `json:"senderId"`
	ReceiverID  uuid.UUID        `json:"receiverId"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	Weight      *float64         `json:"weight,omitempty"`
	Price       *float64         `json:"price,omitempty"`
	Status      ParcelStatus     `json:"status"`
	StatusLogs  []StatusLogEntry `json:"statusLogs"`
	IsBlocked   bool             `json:"isBlocked"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// LastLog returns the most recent history entry, or nil for a parcel without history.
func (p *Parcel) LastLog() *StatusLogEntry {
	if len(p.StatusLogs) == 0 {
		return nil
	}
	return &p.StatusLogs[len(p.StatusLogs)-1]
}

type StatusLogEntry struct {
	Status    ParcelStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	UpdatedBy *uuid.UUID   `json:"updatedBy,omitempty"`
	Note      *string      `json:"note,omitempty"`
}

type ParcelCreateInput struct {
	SenderID    uuid.UUID
	ReceiverID  uuid.UUID
	Origin      string
	Destination string
	Weight      *float64
	Price       *float64
	Note        *string
}

// ParcelFilter describes listParcels filters. Zero values mean "no filter".
type ParcelFilter struct {
	Status     ParcelStatus
	SenderID   *uuid.UUID
	ReceiverID *uuid.UUID
	TrackingID string
	Search     string
	From       *time.Time
	To         *time.Time
}

type Page struct {
	Page  int
	Limit int
	Sort  string
}

func (p Page) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type ParcelList struct {
	Items []*Parcel
	Total int
}

// ParcelSummary is the lightweight projection the dashboards work on.
type ParcelSummary struct {
	ID          uuid.UUID
	SenderID    uuid.UUID
	ReceiverID  uuid.UUID
	Status      ParcelStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastActorID *uuid.UUID
}
