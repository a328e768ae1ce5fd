package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_LineItemsAlwaysArray(t *testing.T) {
	pro := geo.ProLocation{Source: geo.SourceNone}

	tests := []struct {
		name     string
		raw      string
		expected []dto.LineItem
	}{
		{
			name:     "empty column",
			raw:      "",
			expected: []dto.LineItem{},
		},
		{
			name:     "json null",
			raw:      "null",
			expected: []dto.LineItem{},
		},
		{
			name: "plain array",
			raw:  `[{"sku":"SKU-1","name":"Filter","quantity":2,"amount":19.99}]`,
			expected: []dto.LineItem{
				{SKU: "SKU-1", Name: "Filter", Quantity: 2, Amount: float64Ptr(19.99)},
			},
		},
		{
			name: "double-encoded array",
			raw:  `"[{\"sku\":\"SKU-1\",\"name\":\"Filter\",\"quantity\":2,\"amount\":19.99}]"`,
			expected: []dto.LineItem{
				{SKU: "SKU-1", Name: "Filter", Quantity: 2, Amount: float64Ptr(19.99)},
			},
		},
		{
			name:     "garbage coerces to empty array",
			raw:      `{{{not json`,
			expected: []dto.LineItem{},
		},
		{
			name:     "wrong shape coerces to empty array",
			raw:      `{"sku":"SKU-1"}`,
			expected: []dto.LineItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Normalize(domain.Job{JobID: "j-1", Status: "queued", LineItemsRaw: tt.raw}, pro, testLogger())

			require.NotNil(t, d.LineItems, "line_items is never null")
			assert.Equal(t, tt.expected, d.LineItems)
		})
	}

	t.Run("serializes as an array even when empty", func(t *testing.T) {
		d := Normalize(domain.Job{JobID: "j-1", Status: "queued"}, pro, testLogger())
		raw, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"line_items":[]`)
	})
}

func TestNormalize_PayoutNullNeverZero(t *testing.T) {
	pro := geo.ProLocation{Source: geo.SourceNone}

	t.Run("unknown payout stays null", func(t *testing.T) {
		d := Normalize(domain.Job{JobID: "j-1", Status: "queued"}, pro, testLogger())

		assert.Nil(t, d.PayoutEstimated)
		assert.Equal(t, dto.PayoutStatePending, d.PayoutState)

		raw, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"payout_estimated":null`)
	})

	t.Run("zero payout is a real value", func(t *testing.T) {
		d := Normalize(domain.Job{JobID: "j-1", Status: "queued", PayoutEstimated: float64Ptr(0)}, pro, testLogger())

		require.NotNil(t, d.PayoutEstimated)
		assert.Equal(t, 0.0, *d.PayoutEstimated)
		assert.Equal(t, dto.PayoutStateReady, d.PayoutState)
	})
}

func TestNormalize_DistanceStates(t *testing.T) {
	tests := []struct {
		name          string
		job           domain.Job
		pro           geo.ProLocation
		expectedState string
		wantDistance  bool
	}{
		{
			name:          "both located",
			job:           domain.Job{JobID: "j-1", Status: "queued", Lat: float64Ptr(34.20), Lng: float64Ptr(-82.16)},
			pro:           proAt(34.19, -82.16, "29649"),
			expectedState: dto.DistanceStateReady,
			wantDistance:  true,
		},
		{
			name:          "technician unlocated",
			job:           domain.Job{JobID: "j-1", Status: "queued", Lat: float64Ptr(34.20), Lng: float64Ptr(-82.16)},
			pro:           geo.ProLocation{Source: geo.SourceNone},
			expectedState: dto.DistanceStateProPending,
		},
		{
			name:          "job unlocated",
			job:           domain.Job{JobID: "j-1", Status: "queued"},
			pro:           proAt(34.19, -82.16, "29649"),
			expectedState: dto.DistanceStateJobPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Normalize(tt.job, tt.pro, testLogger())

			assert.Equal(t, tt.expectedState, d.DistanceState)
			if tt.wantDistance {
				require.NotNil(t, d.DistanceMiles)
			} else {
				assert.Nil(t, d.DistanceMiles)
			}
		})
	}
}

func TestNormalize_StatusDefaultsToQueued(t *testing.T) {
	d := Normalize(domain.Job{JobID: "j-1", Status: "  "}, geo.ProLocation{Source: geo.SourceNone}, testLogger())
	assert.Equal(t, domain.JobStatusQueued, d.Status)
}

func TestNormalize_Timestamps(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	start := time.Date(2026, 8, 29, 9, 30, 0, 0, est)

	d := Normalize(domain.Job{
		JobID:          "j-1",
		Status:         "scheduled",
		ScheduledStart: &start,
		CreatedAt:      time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}, geo.ProLocation{Source: geo.SourceNone}, testLogger())

	assert.Equal(t, "2026-08-29T14:30:00Z", d.ScheduledStart, "timestamps normalize to UTC RFC3339")
	assert.Equal(t, "", d.ScheduledEnd, "missing timestamp is an empty string, not a zero time")
	assert.Equal(t, "2026-08-28T10:00:00Z", d.CreatedAt)
}

// jobFromDTO folds a normalized record back into the raw shape. Used to show
// normalization is idempotent: a record that is already normalized passes
// through unchanged.
func jobFromDTO(d dto.NormalizedJobDTO) domain.Job {
	job := domain.Job{
		JobID:           d.JobID,
		Status:          d.Status,
		OrderID:         d.OrderID,
		Address:         d.Address,
		City:            d.City,
		State:           d.State,
		Zip:             d.Zip,
		Lat:             d.Lat,
		Lng:             d.Lng,
		PayoutEstimated: d.PayoutEstimated,
		Description:     d.Description,
		AssignState:     d.AssignState,
	}
	if raw, err := json.Marshal(d.LineItems); err == nil {
		job.LineItemsRaw = string(raw)
	}
	if d.ScheduledStart != "" {
		if t, err := time.Parse(time.RFC3339, d.ScheduledStart); err == nil {
			job.ScheduledStart = &t
		}
	}
	if d.ScheduledEnd != "" {
		if t, err := time.Parse(time.RFC3339, d.ScheduledEnd); err == nil {
			job.ScheduledEnd = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
		job.CreatedAt = t
	}
	return job
}

func TestNormalize_Idempotent(t *testing.T) {
	pro := proAt(34.19, -82.16, "29649")
	start := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	job := domain.Job{
		JobID:           "j-1",
		Status:          " In-Progress ",
		OrderID:         "o-1",
		Address:         "10 Main St",
		City:            "Greenwood",
		State:           "SC",
		Zip:             "29649",
		Lat:             float64Ptr(34.20),
		Lng:             float64Ptr(-82.16),
		ScheduledStart:  &start,
		PayoutEstimated: float64Ptr(150),
		LineItemsRaw:    `[{"sku":"SKU-1","name":"Filter","quantity":1,"amount":19.99}]`,
		AssignState:     "accepted",
		CreatedAt:       time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}

	once := Normalize(job, pro, testLogger())
	twice := Normalize(jobFromDTO(once), pro, testLogger())

	assert.Equal(t, once, twice)
}
