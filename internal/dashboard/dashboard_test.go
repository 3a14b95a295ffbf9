package dashboard

import (
	"testing"
	"time"

	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type DashboardSuite struct {
	suite.Suite
	at time.Time
}

func (s *DashboardSuite) SetupTest() {
	s.at = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
}

func (s *DashboardSuite) TestGlobal_BucketMapping() {
	parcels := []models.ParcelSummary{
		{Status: models.StatusCollected, CreatedAt: s.at},
		{Status: models.StatusInTransit, CreatedAt: s.at},
		{Status: models.StatusDelivered, CreatedAt: s.at},
	}
	st := Global(parcels, s.at)
	s.Equal(3, st.Total)
	s.Equal(2, st.InTransit)
	s.Equal(1, st.Delivered)
	s.Equal(0, st.Pending)
	s.Equal(0, st.Cancelled)
}

func (s *DashboardSuite) TestGlobal_LegacyAndUnknownStatuses() {
	parcels := []models.ParcelSummary{
		{Status: "Created"},
		{Status: models.StatusPending},
		{Status: models.StatusDispatched},
		{Status: "Cancelled"},
		{Status: "lost"},
	}
	st := Global(parcels, s.at)
	s.Equal(5, st.Total)
	s.Equal(2, st.Pending)
	s.Equal(1, st.InTransit)
	s.Equal(1, st.Cancelled)
	s.Equal(0, st.Delivered)
}

func (s *DashboardSuite) TestMonthly_SixLabeledMonthsWithZeros() {
	parcels := []models.ParcelSummary{
		{CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 9, 30, 23, 59, 0, 0, time.UTC)}, // за окном
		{},
	}
	got := Monthly(parcels, s.at)
	s.Equal([]models.MonthCount{
		{Month: "2024-10", Count: 1},
		{Month: "2024-11", Count: 0},
		{Month: "2024-12", Count: 1},
		{Month: "2025-01", Count: 0},
		{Month: "2025-02", Count: 0},
		{Month: "2025-03", Count: 2},
	}, got)
}

func (s *DashboardSuite) TestMonthly_UsesUTC() {
	loc := time.FixedZone("UTC+3", 3*3600)
	// 1 апреля 01:00 по UTC+3 это ещё 31 марта по UTC
	at := time.Date(2025, 4, 1, 1, 0, 0, 0, loc)
	got := Monthly(nil, at)
	s.Equal("2025-03", got[len(got)-1].Month)
	s.Equal("2024-10", got[0].Month)
}

func (s *DashboardSuite) TestReceiver_AwaitingConfirmation() {
	receiver := uuid.New()
	sender := uuid.New()

	parcels := []models.ParcelSummary{
		{ReceiverID: receiver, Status: models.StatusDelivered, LastActorID: &sender, UpdatedAt: s.at.AddDate(0, 0, -3)},
		{ReceiverID: receiver, Status: models.StatusDelivered, LastActorID: &receiver, UpdatedAt: s.at.AddDate(0, 0, -3)},
	}
	st := Receiver(receiver, parcels, s.at)
	s.Equal(2, st.Total)
	s.Equal(2, st.Delivered)
	s.Equal(1, st.AwaitingConfirmation)
	s.Equal(0, st.ArrivingToday)
}

func (s *DashboardSuite) TestReceiver_CountsAndToday() {
	receiver := uuid.New()
	other := uuid.New()
	dayStart := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	parcels := []models.ParcelSummary{
		{ReceiverID: receiver, Status: models.StatusCollected, UpdatedAt: dayStart},
		{ReceiverID: receiver, Status: models.StatusDispatched, UpdatedAt: dayStart.Add(-time.Nanosecond)},
		{ReceiverID: receiver, Status: models.StatusInTransit, UpdatedAt: s.at},
		{ReceiverID: receiver, Status: models.StatusDelivered, UpdatedAt: s.at}, // актор неизвестен
		{ReceiverID: receiver, Status: models.StatusPending, UpdatedAt: dayStart.AddDate(0, 0, 1)},
		{ReceiverID: other, Status: models.StatusInTransit, UpdatedAt: s.at},
	}
	st := Receiver(receiver, parcels, s.at)
	s.Equal(5, st.Total)
	s.Equal(3, st.InTransit)
	s.Equal(1, st.Delivered)
	s.Equal(1, st.AwaitingConfirmation)
	s.Equal(3, st.ArrivingToday)
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardSuite))
}
