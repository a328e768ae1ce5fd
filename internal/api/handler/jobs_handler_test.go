package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/auth"
	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
	"github.com/fieldhq/pro-dispatch/internal/api/router/identity"
	"github.com/fieldhq/pro-dispatch/internal/dispatch"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	profile *domain.ProProfile
	jobs    []domain.Job
	jobsErr error
}

func (s *fakeStorage) GetProProfile(context.Context, string) (*domain.ProProfile, error) {
	if s.profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	return s.profile, nil
}

func (s *fakeStorage) ListRecentJobs(context.Context, int) ([]domain.Job, error) {
	return s.jobs, s.jobsErr
}

func (s *fakeStorage) ListRecentOrders(context.Context, int) ([]domain.Order, error) {
	return nil, nil
}

func (s *fakeStorage) ListAssignmentsForPro(context.Context, string) ([]domain.Assignment, error) {
	return nil, nil
}

func (s *fakeStorage) GetJobsByIDs(context.Context, []string) ([]domain.Job, error) {
	return nil, nil
}

func (s *fakeStorage) ListJobsAssignedToPro(context.Context, string) ([]domain.Job, error) {
	return nil, s.jobsErr
}

type noopProvider struct{}

func (noopProvider) Geocode(context.Context, string) (*geo.LatLng, error) { return nil, nil }

func newTestRouter(store *fakeStorage, withIdentity bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	geoResolver := geo.NewResolver(geo.NewMemoryCache(), noopProvider{}, nil, logger)
	resolver := dispatch.NewResolver(store, geoResolver, dispatch.Options{}, logger)

	h := NewJobsHandler(&Dependencies{Logger: logger, Resolver: resolver})

	r := gin.New()
	r.GET("/api/v1/pros/me/jobs", func(c *gin.Context) {
		if withIdentity {
			identity.Set(c, auth.Identity{TechnicianID: "pro-1", Role: "pro"})
		}
		h.GetMyJobs(c)
	})
	return r
}

func doRequest(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetMyJobs(t *testing.T) {
	lat, lng := 34.19, -82.16

	t.Run("returns the three buckets", func(t *testing.T) {
		store := &fakeStorage{
			profile: &domain.ProProfile{ProID: "pro-1", Lat: &lat, Lng: &lng, ServiceRadiusMiles: 25},
			jobs: []domain.Job{
				{JobID: "j-1", Status: "queued", Lat: &lat, Lng: &lng, CreatedAt: time.Now()},
			},
		}

		w := doRequest(newTestRouter(store, true), "/api/v1/pros/me/jobs")

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.TechJobsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ModeFull, resp.Meta.Mode)
		require.Len(t, resp.Offers, 1)
		assert.Equal(t, "j-1", resp.Offers[0].JobID)
		assert.Nil(t, resp.Meta.Diagnostics, "diagnostics only on debug")
	})

	t.Run("debug exposes diagnostics", func(t *testing.T) {
		store := &fakeStorage{
			profile: &domain.ProProfile{ProID: "pro-1", Lat: &lat, Lng: &lng, ServiceRadiusMiles: 25},
		}

		w := doRequest(newTestRouter(store, true), "/api/v1/pros/me/jobs?debug=true")

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.TechJobsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotNil(t, resp.Meta.Diagnostics)
	})

	t.Run("lat without lng is a client error", func(t *testing.T) {
		store := &fakeStorage{}

		w := doRequest(newTestRouter(store, true), "/api/v1/pros/me/jobs?lat=34.19")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unconfigured store maps to 503", func(t *testing.T) {
		store := &fakeStorage{jobsErr: domain.ErrStoreUnconfigured}

		w := doRequest(newTestRouter(store, true), "/api/v1/pros/me/jobs")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "STORE_UNCONFIGURED")
	})

	t.Run("missing identity is a server error", func(t *testing.T) {
		store := &fakeStorage{}

		w := doRequest(newTestRouter(store, false), "/api/v1/pros/me/jobs")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
