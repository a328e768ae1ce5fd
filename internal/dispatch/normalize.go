package dispatch

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
)

// Normalize is the terminal stage: it guarantees every returned record has
// a complete, typed shape regardless of upstream completeness. It never
// panics. Every coercion that changes a field from its raw form produces a
// structured log entry naming the field and job id, so data-quality
// regressions stay observable without crashing the request.
func Normalize(job domain.Job, pro geo.ProLocation, logger *slog.Logger) dto.NormalizedJobDTO {
	status := NormalizeStatus(job.Status)
	if status == "" {
		status = domain.JobStatusQueued
		logger.Info("Job status missing, defaulting",
			slog.String("job_id", job.JobID),
			slog.String("default", domain.JobStatusQueued),
		)
	}

	items, parseFailed := parseLineItems(job.LineItemsRaw)
	if parseFailed {
		logger.Warn("Job line_items unparsable, coercing to empty array",
			slog.String("job_id", job.JobID),
		)
	}

	payoutState := dto.PayoutStateReady
	if job.PayoutEstimated == nil {
		// Payout stays null: 0 is reserved for a job genuinely confirmed
		// free by the source.
		payoutState = dto.PayoutStatePending
		logger.Info("Job payout unknown",
			slog.String("job_id", job.JobID),
			slog.String("field", "payout_estimated"),
		)
	}

	var distance *float64
	distanceState := dto.DistanceStateReady
	switch {
	case !pro.HasCoords():
		distanceState = dto.DistanceStateProPending
	case !job.HasCoords():
		distanceState = dto.DistanceStateJobPending
	default:
		d := geo.DistanceMiles(*pro.Lat, *pro.Lng, *job.Lat, *job.Lng)
		distance = &d
	}

	return dto.NormalizedJobDTO{
		JobID:           job.JobID,
		Status:          status,
		OrderID:         job.OrderID,
		Address:         job.Address,
		City:            job.City,
		State:           job.State,
		Zip:             job.Zip,
		Lat:             job.Lat,
		Lng:             job.Lng,
		ScheduledStart:  formatTime(job.ScheduledStart),
		ScheduledEnd:    formatTime(job.ScheduledEnd),
		PayoutEstimated: job.PayoutEstimated,
		PayoutState:     payoutState,
		DistanceMiles:   distance,
		DistanceState:   distanceState,
		LineItems:       items,
		Description:     job.Description,
		AssignState:     NormalizeStatus(job.AssignState),
		CreatedAt:       job.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// parseLineItems coerces the raw line_items column to a typed array. The
// column may hold a JSON array or a JSON-string wrapping one (legacy double
// encoding). Anything unparsable coerces to an empty array. The second
// return reports whether non-empty input failed to parse.
func parseLineItems(raw string) ([]dto.LineItem, bool) {
	if raw == "" || raw == "null" {
		return []dto.LineItem{}, false
	}

	var items []dto.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		if items == nil {
			items = []dto.LineItem{}
		}
		return items, false
	}

	// Legacy rows double-encode: a JSON string containing the array.
	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &items); err == nil && items != nil {
			return items, false
		}
	}

	return []dto.LineItem{}, true
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
