package dispatch

import (
	"github.com/fieldhq/pro-dispatch/internal/api/domain"
)

// Buckets is the classified view of a technician's merged job rows.
type Buckets struct {
	Offers    []domain.Job
	Upcoming  []domain.Job
	Completed []domain.Job
}

// Bucket classifies each merged row. Lifecycle status is checked first: any
// completion or cancellation status lands in Completed regardless of
// assignment state; lifecycle completion always wins. Otherwise the
// bucketing state is the assignment state when present, else the lifecycle
// status. Unrecognized states fail open into Offers so no job is dropped by
// miscategorization.
func Bucket(rows []domain.Job) Buckets {
	var b Buckets

	for _, row := range rows {
		if inSet(completedStates, row.Status) {
			b.Completed = append(b.Completed, row)
			continue
		}

		state := row.AssignState
		if NormalizeStatus(state) == "" {
			state = row.Status
		}

		switch {
		case inSet(completedStates, state):
			b.Completed = append(b.Completed, row)
		case inSet(upcomingStates, state):
			b.Upcoming = append(b.Upcoming, row)
		case inSet(offerStates, state):
			b.Offers = append(b.Offers, row)
		default:
			// Unrecognized states fail open as offers.
			b.Offers = append(b.Offers, row)
		}
	}

	return b
}
