package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	profile     *domain.ProProfile
	profileErr  error
	jobs        []domain.Job
	jobsErr     error
	orders      []domain.Order
	ordersErr   error
	assignments []domain.Assignment
	assignErr   error
	byID        map[string]domain.Job
	assigned    []domain.Job
	assignedErr error
}

func (s *stubStorage) GetProProfile(context.Context, string) (*domain.ProProfile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.profile, nil
}

func (s *stubStorage) ListRecentJobs(context.Context, int) ([]domain.Job, error) {
	return s.jobs, s.jobsErr
}

func (s *stubStorage) ListRecentOrders(context.Context, int) ([]domain.Order, error) {
	return s.orders, s.ordersErr
}

func (s *stubStorage) ListAssignmentsForPro(context.Context, string) ([]domain.Assignment, error) {
	return s.assignments, s.assignErr
}

func (s *stubStorage) GetJobsByIDs(_ context.Context, ids []string) ([]domain.Job, error) {
	var out []domain.Job
	for _, id := range ids {
		if job, ok := s.byID[id]; ok {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *stubStorage) ListJobsAssignedToPro(context.Context, string) ([]domain.Job, error) {
	return s.assigned, s.assignedErr
}

func newTestResolver(s *stubStorage) *Resolver {
	geoResolver := geo.NewResolver(geo.NewMemoryCache(), &countingProvider{}, nil, testLogger())
	r := NewResolver(s, geoResolver, Options{
		StatusWhitelist: []string{"queued", "scheduled", "in_progress", "completed", "done", "paid", "cancelled"},
		TakeRate:        0.75,
	}, testLogger())
	r.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestResolveJobsForTechnician_FullMode(t *testing.T) {
	profile := &domain.ProProfile{
		ProID:              "pro-1",
		Zip:                "29649",
		Lat:                float64Ptr(34.19),
		Lng:                float64Ptr(-82.16),
		ServiceRadiusMiles: 25,
	}
	store := &stubStorage{
		profile: profile,
		jobs: []domain.Job{
			{JobID: "offer-near", Status: "queued", OrderID: "o-1", Lat: float64Ptr(34.20), Lng: float64Ptr(-82.16), CreatedAt: time.Now()},
			{JobID: "mine-accepted", Status: "queued", Lat: float64Ptr(34.19), Lng: float64Ptr(-82.16), CreatedAt: time.Now()},
			{JobID: "mine-done", Status: "completed", CreatedAt: time.Now()},
			{JobID: "dropped", Status: "draft", CreatedAt: time.Now()},
			{JobID: "too-far", Status: "queued", Zip: "99999", Lat: float64Ptr(44.0), Lng: float64Ptr(-82.16), CreatedAt: time.Now()},
		},
		orders: []domain.Order{
			{OrderID: "o-1", Subtotal: float64Ptr(200), Status: "paid"},
		},
		assignments: []domain.Assignment{
			{AssignmentID: "a-1", JobID: "mine-accepted", ProID: "pro-1", State: "accepted"},
			{AssignmentID: "a-2", JobID: "mine-done", ProID: "pro-1", State: "accepted"},
			{AssignmentID: "a-3", JobID: "declined-gone", ProID: "pro-1", State: "declined"},
		},
	}

	resp, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{Debug: true})
	require.NoError(t, err)

	assert.Equal(t, dto.ModeFull, resp.Meta.Mode)
	assert.Equal(t, geo.SourceProfile, resp.Meta.Geo.Source)

	require.Len(t, resp.Offers, 1)
	assert.Equal(t, "offer-near", resp.Offers[0].JobID)
	require.NotNil(t, resp.Offers[0].PayoutEstimated)
	assert.Equal(t, 150.0, *resp.Offers[0].PayoutEstimated, "payout enriched from the order subtotal")

	require.Len(t, resp.Upcoming, 1)
	assert.Equal(t, "mine-accepted", resp.Upcoming[0].JobID)
	assert.Equal(t, "accepted", resp.Upcoming[0].AssignState)

	require.Len(t, resp.Completed, 1)
	assert.Equal(t, "mine-done", resp.Completed[0].JobID)

	require.NotNil(t, resp.Meta.Diagnostics)
	assert.Equal(t, 5, resp.Meta.Diagnostics.CandidateJobs)
	assert.Equal(t, 1, resp.Meta.Diagnostics.DroppedByStatus)
	assert.Equal(t, 1, resp.Meta.Diagnostics.ExcludedOutOfRange)
}

func TestResolveJobsForTechnician_AssignedJobOutsideWindow(t *testing.T) {
	// The accepted job fell out of the recent-jobs window; it must still be
	// fetched and shown.
	profile := &domain.ProProfile{ProID: "pro-1", Lat: float64Ptr(34.19), Lng: float64Ptr(-82.16), ServiceRadiusMiles: 25}
	store := &stubStorage{
		profile: profile,
		jobs:    []domain.Job{},
		assignments: []domain.Assignment{
			{AssignmentID: "a-1", JobID: "old-job", ProID: "pro-1", State: "accepted"},
		},
		byID: map[string]domain.Job{
			"old-job": {JobID: "old-job", Status: "scheduled", CreatedAt: time.Now().Add(-30 * 24 * time.Hour)},
		},
	}

	resp, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{})
	require.NoError(t, err)

	require.Len(t, resp.Upcoming, 1)
	assert.Equal(t, "old-job", resp.Upcoming[0].JobID)
	assert.Equal(t, "accepted", resp.Upcoming[0].AssignState)
}

func TestResolveJobsForTechnician_FallbackDirect(t *testing.T) {
	store := &stubStorage{
		profile: &domain.ProProfile{ProID: "pro-1", Lat: float64Ptr(34.19), Lng: float64Ptr(-82.16)},
		jobsErr: errors.New("jobs table exploded"),
		assigned: []domain.Job{
			{JobID: "mine-1", Status: "scheduled", CreatedAt: time.Now()},
			{JobID: "mine-2", Status: "completed", CreatedAt: time.Now()},
		},
	}

	resp, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{Debug: true})
	require.NoError(t, err)

	assert.Equal(t, dto.ModeFallbackDirect, resp.Meta.Mode)
	require.NotNil(t, resp.Meta.Diagnostics)
	assert.Contains(t, resp.Meta.Diagnostics.FallbackReason, "jobs table exploded")

	require.Len(t, resp.Upcoming, 1)
	assert.Equal(t, "mine-1", resp.Upcoming[0].JobID)
	require.Len(t, resp.Completed, 1)
	assert.Equal(t, "mine-2", resp.Completed[0].JobID)
}

func TestResolveJobsForTechnician_StoreUnconfiguredIsFatal(t *testing.T) {
	store := &stubStorage{
		profile: &domain.ProProfile{ProID: "pro-1"},
		jobsErr: domain.ErrStoreUnconfigured,
	}

	_, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnconfigured)
}

func TestResolveJobsForTechnician_MissingProfileDegrades(t *testing.T) {
	store := &stubStorage{
		profileErr: domain.ErrProfileNotFound,
		jobs: []domain.Job{
			{JobID: "j-1", Status: "queued", Zip: "29649", CreatedAt: time.Now()},
		},
	}

	resp, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{})
	require.NoError(t, err)

	assert.Equal(t, geo.SourceNone, resp.Meta.Geo.Source)
	assert.NotEmpty(t, resp.Meta.Geo.Warning)
	assert.Empty(t, resp.Offers, "job with zip but unlocatable technician is excluded")
}

func TestResolveJobsForTechnician_LiveCoordinates(t *testing.T) {
	store := &stubStorage{
		profileErr: domain.ErrProfileNotFound,
		jobs: []domain.Job{
			{JobID: "j-1", Status: "queued", Lat: float64Ptr(34.20), Lng: float64Ptr(-82.16), CreatedAt: time.Now()},
		},
	}

	resp, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{
		LiveLat: float64Ptr(34.19),
		LiveLng: float64Ptr(-82.16),
	})
	require.NoError(t, err)

	assert.Equal(t, geo.SourceLive, resp.Meta.Geo.Source)
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, dto.DistanceStateReady, resp.Offers[0].DistanceState)
}

func TestResolveJobsForTechnician_SingleJobMode(t *testing.T) {
	store := &stubStorage{
		profile: &domain.ProProfile{ProID: "pro-1", Lat: float64Ptr(34.19), Lng: float64Ptr(-82.16), ServiceRadiusMiles: 25},
		jobs: []domain.Job{
			{JobID: "j-1", Status: "queued", Lat: float64Ptr(34.20), Lng: float64Ptr(-82.16), CreatedAt: time.Now()},
			{JobID: "j-2", Status: "queued", Lat: float64Ptr(34.21), Lng: float64Ptr(-82.16), CreatedAt: time.Now()},
		},
	}

	resp, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{JobID: "j-2"})
	require.NoError(t, err)

	assert.Equal(t, dto.ModeSingleJob, resp.Meta.Mode)
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, "j-2", resp.Offers[0].JobID)
	assert.Empty(t, resp.Upcoming)
	assert.Empty(t, resp.Completed)
}

func TestResolveJobsForTechnician_OrderReadFailureDegrades(t *testing.T) {
	store := &stubStorage{
		profile: &domain.ProProfile{ProID: "pro-1", Lat: float64Ptr(34.19), Lng: float64Ptr(-82.16), ServiceRadiusMiles: 25},
		jobs: []domain.Job{
			{JobID: "j-1", Status: "queued", OrderID: "o-1", Lat: float64Ptr(34.20), Lng: float64Ptr(-82.16), CreatedAt: time.Now()},
		},
		ordersErr: errors.New("orders table timeout"),
	}

	resp, err := newTestResolver(store).ResolveJobsForTechnician(context.Background(), "pro-1", Request{})
	require.NoError(t, err)

	assert.Equal(t, dto.ModeFull, resp.Meta.Mode)
	require.Len(t, resp.Offers, 1)
	assert.Nil(t, resp.Offers[0].PayoutEstimated)
	assert.Equal(t, dto.PayoutStatePending, resp.Offers[0].PayoutState)
}
