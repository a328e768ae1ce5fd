package dispatch

import (
	"math"
	"sort"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
)

const baseScore = 100

// Score computes a job's offer priority. Pure and deterministic: identical
// inputs always produce the identical score. Additive terms:
//
//	status scheduled           +1000
//	status queued              +500
//	distance < 10mi            +500
//	distance 10-25mi           +200
//	distance penalty           -floor(distance x 10)
//	due within 24h             +300
//	due within 24-48h          +100
//	already past due           -500
//
// Distance terms apply only when both endpoints are known; the due terms
// are skipped when the job carries no scheduled start.
func Score(job domain.Job, pro geo.ProLocation, now time.Time) int {
	score := baseScore

	switch NormalizeStatus(job.Status) {
	case domain.JobStatusScheduled:
		score += 1000
	case domain.JobStatusQueued:
		score += 500
	}

	if pro.HasCoords() && job.HasCoords() {
		d := geo.DistanceMiles(*pro.Lat, *pro.Lng, *job.Lat, *job.Lng)
		if d < 10 {
			score += 500
		} else if d < 25 {
			score += 200
		}
		score -= int(math.Floor(d * 10))
	}

	if job.ScheduledStart != nil {
		until := job.ScheduledStart.Sub(now)
		switch {
		case until < 0:
			score -= 500
		case until <= 24*time.Hour:
			score += 300
		case until <= 48*time.Hour:
			score += 100
		}
	}

	return score
}

// Rank orders jobs by descending score, breaking ties by created_at
// descending (newest first). Returns a new slice; the input is not mutated.
func Rank(jobs []domain.Job, pro geo.ProLocation, now time.Time) []domain.Job {
	ranked := make([]domain.Job, len(jobs))
	copy(ranked, jobs)

	scores := make(map[string]int, len(ranked))
	for _, job := range ranked {
		scores[job.JobID] = Score(job, pro, now)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i].JobID], scores[ranked[j].JobID]
		if si != sj {
			return si > sj
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	return ranked
}
