package parcels_api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/api/httpx"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/BearBump/SwiftDrop/internal/services/parcels"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Service interface {
	CreateParcel(ctx context.Context, actor auth.Identity, req parcels.CreateParcelRequest) (*models.Parcel, error)
	UpdateStatus(ctx context.Context, actor auth.Identity, id uuid.UUID, rawStatus string, note *string) (*models.Parcel, error)
	CancelParcel(ctx context.Context, actor auth.Identity, id uuid.UUID) (*models.Parcel, error)
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*models.Parcel, error)
	GetByID(ctx context.Context, actor auth.Identity, id uuid.UUID) (*models.Parcel, error)
	ListParcels(ctx context.Context, actor auth.Identity, f models.ParcelFilter, page models.Page) (*models.ParcelList, error)
	GlobalSummary(ctx context.Context) (models.GlobalStats, error)
	Summary(ctx context.Context, actor auth.Identity) (models.GlobalStats, error)
	ReceiverStats(ctx context.Context, actor auth.Identity) (models.ReceiverStats, error)
	AdminStats(ctx context.Context) (models.AdminStats, error)
}

type ParcelsAPI struct {
	svc Service
	now func() time.Time
}

func New(svc Service) *ParcelsAPI {
	return &ParcelsAPI{svc: svc, now: time.Now}
}

// Mount registers /api/parcels and /api/dashboard. trackLimit wraps the
// public tracking lookup and may be nil.
func (a *ParcelsAPI) Mount(r chi.Router, authn httpx.Authenticator, trackLimit func(http.Handler) http.Handler) {
	requireAuth := httpx.RequireAuth(authn)

	r.Route("/api/parcels", func(r chi.Router) {
		track := http.Handler(http.HandlerFunc(a.Track))
		if trackLimit != nil {
			track = trackLimit(track)
		}
		r.Method(http.MethodGet, "/track/{trackingId}", track)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.With(httpx.RequireRoles(models.RoleAdmin)).Get("/stats", a.GlobalStats)
			r.With(httpx.RequireRoles(models.RoleSender)).Post("/", a.Create)
			r.Get("/", a.List)
			r.Get("/{id}", a.Get)

			status := httpx.RequireRoles(models.RoleAdmin, models.RoleDelivery, models.RoleSender, models.RoleReceiver)
			r.With(status).Put("/{id}/status", a.UpdateStatus)
			r.With(status).Patch("/{id}/status", a.UpdateStatus)

			cancel := httpx.RequireRoles(models.RoleSender, models.RoleAdmin)
			r.With(cancel).Put("/{id}/cancel", a.Cancel)
			r.With(cancel).Patch("/{id}/cancel", a.Cancel)

			r.With(httpx.RequireRoles(models.RoleAdmin)).Patch("/{id}/block-status", a.SetBlocked)
		})
	})

	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(httpx.RequireRoles(models.RoleAdmin, models.RoleSender, models.RoleReceiver)).Get("/summary", a.Summary)
		r.With(httpx.RequireRoles(models.RoleReceiver)).Get("/receiver", a.ReceiverStats)
		r.With(httpx.RequireRoles(models.RoleAdmin)).Get("/admin", a.AdminStats)
	})
}

type createParcelRequest struct {
	ReceiverID      string   `json:"receiverId" validate:"required_without=ReceiverShortID"`
	ReceiverShortID string   `json:"receiverShortId"`
	Origin          string   `json:"origin" validate:"required,max=255"`
	Destination     string   `json:"destination" validate:"required,max=255"`
	Weight          *float64 `json:"weight" validate:"omitempty,gte=0"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	Note            *string  `json:"note" validate:"omitempty,max=500"`
}

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

type blockRequest struct {
	Block *bool `json:"block" validate:"required"`
}

type parcelList struct {
	Items []*models.Parcel `json:"items"`
	Meta  httpx.Meta       `json:"meta"`
}

func (a *ParcelsAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req createParcelRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	receiver := strings.TrimSpace(req.ReceiverID)
	if receiver == "" {
		receiver = strings.TrimSpace(req.ReceiverShortID)
	}

	p, err := a.svc.CreateParcel(r.Context(), httpx.Identity(r), parcels.CreateParcelRequest{
		Receiver:    receiver,
		Origin:      req.Origin,
		Destination: req.Destination,
		Weight:      req.Weight,
		Price:       req.Price,
		Note:        req.Note,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, p)
}

func (a *ParcelsAPI) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req updateStatusRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := a.svc.UpdateStatus(r.Context(), httpx.Identity(r), id, req.Status, req.Note)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (a *ParcelsAPI) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := a.svc.CancelParcel(r.Context(), httpx.Identity(r), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (a *ParcelsAPI) SetBlocked(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req blockRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := a.svc.SetBlocked(r.Context(), id, *req.Block)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

// Track is the public lookup by tracking id.
func (a *ParcelsAPI) Track(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.GetByTrackingID(r.Context(), chi.URLParam(r, "trackingId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (a *ParcelsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := a.svc.GetByID(r.Context(), httpx.Identity(r), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (a *ParcelsAPI) List(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	f, err := httpx.ParseParcelFilter(r, a.now())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	list, err := a.svc.ListParcels(r.Context(), httpx.Identity(r), f, page)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	items := list.Items
	if items == nil {
		items = []*models.Parcel{}
	}
	httpx.OK(w, http.StatusOK, parcelList{Items: items, Meta: httpx.NewMeta(list.Total, page)})
}

func (a *ParcelsAPI) GlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.GlobalSummary(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, stats)
}

func (a *ParcelsAPI) Summary(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Summary(r.Context(), httpx.Identity(r))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, stats)
}

func (a *ParcelsAPI) ReceiverStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.ReceiverStats(r.Context(), httpx.Identity(r))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, stats)
}

func (a *ParcelsAPI) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.AdminStats(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, stats)
}
