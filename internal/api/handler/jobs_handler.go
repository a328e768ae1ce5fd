package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/router/identity"
	"github.com/fieldhq/pro-dispatch/internal/dispatch"
	"github.com/gin-gonic/gin"
)

type jobsQuery struct {
	Lat   *float64 `form:"lat"`
	Lng   *float64 `form:"lng"`
	JobID string   `form:"job_id"`
	Debug bool     `form:"debug"`
}

// GetMyJobs handles GET /api/v1/pros/me/jobs
// Resolves the authenticated technician's offers/upcoming/completed view.
// Partial upstream data never fails the request; only an auth failure
// (handled in middleware) or an unreachable store produces a non-200.
func (h *JobsHandler) GetMyJobs(c *gin.Context) {
	ident, ok := identity.FromContext(c)
	if !ok {
		// Route is behind the auth middleware; reaching here without an
		// identity is a wiring bug, not a client error.
		h.logger.Error("No identity on authenticated route",
			slog.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "identity missing",
		})
		return
	}

	var q jobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	// A live position is only usable as a pair.
	if (q.Lat == nil) != (q.Lng == nil) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "lat and lng must be provided together",
		})
		return
	}

	resp, err := h.resolver.ResolveJobsForTechnician(c.Request.Context(), ident.TechnicianID, dispatch.Request{
		LiveLat: q.Lat,
		LiveLng: q.Lng,
		JobID:   q.JobID,
		Debug:   q.Debug,
	})
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnconfigured) {
			h.logger.Error("Dispatch store unavailable",
				slog.String("pro_id", ident.TechnicianID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "dispatch store unavailable",
				"code":  "STORE_UNCONFIGURED",
			})
			return
		}

		h.logger.Error("Job resolution failed",
			slog.String("pro_id", ident.TechnicianID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve jobs",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
