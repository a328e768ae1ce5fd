package dispatch

import (
	"testing"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestScore(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	pro := proAt(40.0, -75.0, "29649")
	noLocation := geo.ProLocation{Source: geo.SourceNone}

	// 0.115779 degrees of latitude is 8.0 miles.
	nearLat := 40.115779

	tests := []struct {
		name     string
		job      domain.Job
		pro      geo.ProLocation
		expected int
	}{
		{
			name: "queued nearby due tomorrow",
			job: domain.Job{
				JobID:          "j-1",
				Status:         "queued",
				Lat:            &nearLat,
				Lng:            float64Ptr(-75.0),
				ScheduledStart: timePtr(now.Add(6 * time.Hour)),
			},
			pro: pro,
			// 100 base + 500 queued + 500 near - 80 distance + 300 due soon
			expected: 1320,
		},
		{
			name: "scheduled past due mid distance",
			job: domain.Job{
				JobID:          "j-2",
				Status:         "scheduled",
				Lat:            float64Ptr(40.173669), // 12.0 miles
				Lng:            float64Ptr(-75.0),
				ScheduledStart: timePtr(now.Add(-time.Hour)),
			},
			pro: pro,
			// 100 base + 1000 scheduled + 200 mid - 120 distance - 500 past due
			expected: 680,
		},
		{
			name:     "unknown distance skips distance terms",
			job:      domain.Job{JobID: "j-3", Status: "queued"},
			pro:      noLocation,
			expected: 600,
		},
		{
			name: "due in 24 to 48 hours",
			job: domain.Job{
				JobID:          "j-4",
				Status:         "queued",
				ScheduledStart: timePtr(now.Add(36 * time.Hour)),
			},
			pro:      noLocation,
			expected: 700,
		},
		{
			name:     "unrecognized status gets no status term",
			job:      domain.Job{JobID: "j-5", Status: "whatever"},
			pro:      noLocation,
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.job, tt.pro, now))
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	pro := proAt(40.0, -75.0, "29649")
	job := domain.Job{
		JobID:          "j-1",
		Status:         "queued",
		Lat:            float64Ptr(40.1),
		Lng:            float64Ptr(-75.1),
		ScheduledStart: timePtr(now.Add(3 * time.Hour)),
	}

	first := Score(job, pro, now)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Score(job, pro, now))
	}
}

func TestRank(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	pro := geo.ProLocation{Source: geo.SourceNone}

	t.Run("orders by descending score", func(t *testing.T) {
		jobs := []domain.Job{
			{JobID: "low", Status: "whatever", CreatedAt: now},
			{JobID: "high", Status: "scheduled", CreatedAt: now},
			{JobID: "mid", Status: "queued", CreatedAt: now},
		}

		ranked := Rank(jobs, pro, now)

		require.Len(t, ranked, 3)
		assert.Equal(t, "high", ranked[0].JobID)
		assert.Equal(t, "mid", ranked[1].JobID)
		assert.Equal(t, "low", ranked[2].JobID)
	})

	t.Run("ties break newest first", func(t *testing.T) {
		jobs := []domain.Job{
			{JobID: "older", Status: "queued", CreatedAt: now.Add(-2 * time.Hour)},
			{JobID: "newer", Status: "queued", CreatedAt: now.Add(-time.Hour)},
		}

		ranked := Rank(jobs, pro, now)

		assert.Equal(t, "newer", ranked[0].JobID)
		assert.Equal(t, "older", ranked[1].JobID)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		jobs := []domain.Job{
			{JobID: "low", Status: "whatever", CreatedAt: now},
			{JobID: "high", Status: "scheduled", CreatedAt: now},
		}

		_ = Rank(jobs, pro, now)

		assert.Equal(t, "low", jobs[0].JobID)
		assert.Equal(t, "high", jobs[1].JobID)
	})
}
