package messages

import (
	"time"
)

// ParcelStatusChanged is published after every accepted status transition,
// including creation and cancellation. Key is the tracking id.
type ParcelStatusChanged struct {
	ParcelID   string    `json:"parcel_id"`
	TrackingID string    `json:"tracking_id"`
	Status     string    `json:"status"`
	Previous   string    `json:"previous,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
	ActorID    *string   `json:"actor_id,omitempty"`
	Note       *string   `json:"note,omitempty"`
}
