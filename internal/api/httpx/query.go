package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/lifecycle"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var sortFields = map[string]struct{}{
	"createdAt":  {},
	"updatedAt":  {},
	"status":     {},
	"trackingId": {},
}

// ParsePage reads page, limit and sort. page >= 1, limit 1..100.
func ParsePage(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	p := models.Page{Page: 1, Limit: DefaultLimit, Sort: "-createdAt"}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, apperrors.Validation("page must be a positive integer")
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return p, apperrors.Validation("limit must be between 1 and %d", MaxLimit)
		}
		p.Limit = n
	}
	if v := strings.TrimSpace(q.Get("sort")); v != "" {
		if _, ok := sortFields[strings.TrimPrefix(v, "-")]; !ok {
			return p, apperrors.Validation("unsupported sort field %q", v)
		}
		p.Sort = v
	}
	return p, nil
}

// ParseParcelFilter reads listParcels filters. dateRange (7d, 30d, 90d, all)
// sets the lower bound relative to at; explicit fromDate/toDate win.
func ParseParcelFilter(r *http.Request, at time.Time) (models.ParcelFilter, error) {
	q := r.URL.Query()
	var f models.ParcelFilter

	if v := q.Get("status"); v != "" {
		st, err := lifecycle.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	for _, p := range []struct {
		name string
		dst  **uuid.UUID
	}{{"senderId", &f.SenderID}, {"receiverId", &f.ReceiverID}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperrors.Validation("%s must be a UUID", p.name)
		}
		*p.dst = &id
	}
	f.TrackingID = strings.TrimSpace(q.Get("trackingId"))
	f.Search = strings.TrimSpace(q.Get("search"))

	switch q.Get("dateRange") {
	case "", "all":
	case "7d", "30d", "90d":
		days, _ := strconv.Atoi(strings.TrimSuffix(q.Get("dateRange"), "d"))
		from := now.With(at.UTC()).BeginningOfDay().AddDate(0, 0, -days)
		f.From = &from
	default:
		return f, apperrors.Validation("dateRange must be one of 7d, 30d, 90d, all")
	}

	if v := q.Get("fromDate"); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			return f, apperrors.Validation("fromDate must be a date (YYYY-MM-DD) or RFC3339 time")
		}
		if dateOnly {
			t = now.With(t).BeginningOfDay()
		}
		f.From = &t
	}
	if v := q.Get("toDate"); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			return f, apperrors.Validation("toDate must be a date (YYYY-MM-DD) or RFC3339 time")
		}
		if dateOnly {
			t = now.With(t).EndOfDay()
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, apperrors.Validation("fromDate must not be after toDate")
	}
	return f, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.ParseInLocation("2006-01-02", v, time.UTC); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t.UTC(), false, err
}

// PathUUID reads a UUID URL parameter.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("%s must be a UUID", name)
	}
	return id, nil
}

// Pages is the page count for total items at limit per page.
func Pages(total, limit int) int {
	if limit <= 0 || total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

func NewMeta(total int, p models.Page) Meta {
	return Meta{Total: total, Page: p.Page, Limit: p.Limit, Pages: Pages(total, p.Limit)}
}
