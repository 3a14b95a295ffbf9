// Package dashboard derives dashboard statistics from parcel summaries.
// Everything here is a pure function of its input and the supplied clock.
package dashboard

import (
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/lifecycle"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

const MonthsWindow = 6

type bucket int

const (
	bucketOther bucket = iota
	bucketPending
	bucketInTransit
	bucketDelivered
	bucketCancelled
)

// bucketOf maps a stored status to a dashboard bucket. "created" is the
// legacy name of pending; unknown values only count towards the total.
func bucketOf(s models.ParcelStatus) bucket {
	st := models.ParcelStatus(strings.ToLower(string(s)))
	switch {
	case st == models.StatusPending || st == "created":
		return bucketPending
	case lifecycle.InTransitFamily(st):
		return bucketInTransit
	case st == models.StatusDelivered:
		return bucketDelivered
	case st == models.StatusCancelled:
		return bucketCancelled
	}
	return bucketOther
}

// Global computes admin-wide totals and the trailing six month creation chart.
func Global(parcels []models.ParcelSummary, at time.Time) models.GlobalStats {
	st := models.GlobalStats{Total: len(parcels)}
	for _, p := range parcels {
		switch bucketOf(p.Status) {
		case bucketPending:
			st.Pending++
		case bucketInTransit:
			st.InTransit++
		case bucketDelivered:
			st.Delivered++
		case bucketCancelled:
			st.Cancelled++
		}
	}
	st.Monthly = Monthly(parcels, at)
	return st
}

// Monthly counts parcels created in each of the last MonthsWindow UTC
// months, the current one included. Months without parcels are present with
// a zero count; labels are YYYY-MM in ascending order.
func Monthly(parcels []models.ParcelSummary, at time.Time) []models.MonthCount {
	first := now.With(at.UTC()).BeginningOfMonth().AddDate(0, -(MonthsWindow - 1), 0)

	out := make([]models.MonthCount, MonthsWindow)
	index := make(map[string]int, MonthsWindow)
	for i := 0; i < MonthsWindow; i++ {
		label := first.AddDate(0, i, 0).Format("2006-01")
		out[i] = models.MonthCount{Month: label}
		index[label] = i
	}

	for _, p := range parcels {
		if p.CreatedAt.IsZero() {
			continue
		}
		if i, ok := index[p.CreatedAt.UTC().Format("2006-01")]; ok {
			out[i].Count++
		}
	}
	return out
}

// Receiver computes the receiver dashboard. Parcels addressed to other
// receivers are ignored.
//
// A delivered parcel awaits confirmation while its latest history entry was
// written by someone other than the receiver. "Arriving today" is a
// heuristic: the parcel was last updated during the current UTC day.
func Receiver(receiverID uuid.UUID, parcels []models.ParcelSummary, at time.Time) models.ReceiverStats {
	day := now.With(at.UTC())
	dayStart, dayEnd := day.BeginningOfDay(), day.EndOfDay()

	var st models.ReceiverStats
	for _, p := range parcels {
		if p.ReceiverID != receiverID {
			continue
		}
		st.Total++

		switch bucketOf(p.Status) {
		case bucketInTransit:
			st.InTransit++
		case bucketDelivered:
			st.Delivered++
			if p.LastActorID == nil || *p.LastActorID != receiverID {
				st.AwaitingConfirmation++
			}
		}

		u := p.UpdatedAt.UTC()
		if !u.Before(dayStart) && !u.After(dayEnd) {
			st.ArrivingToday++
		}
	}
	return st
}
