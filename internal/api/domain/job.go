package domain

import "time"

// Job lifecycle statuses. Status only moves forward (queued -> scheduled ->
// in_progress -> completed); cancellation is reachable from any non-terminal
// state. Upstream deployments disagree on casing, so comparisons elsewhere
// are case-insensitive.
const (
	JobStatusQueued     = "queued"
	JobStatusScheduled  = "scheduled"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Job is a unit of field work as read from the dispatch store, possibly
// enriched from its linked Order. Optional fields are pointers: nil means
// "unknown", which the normalizer must never collapse into a zero value.
type Job struct {
	JobID           string     `db:"job_id" json:"job_id"`
	Status          string     `db:"status" json:"status"`
	OrderID         string     `db:"order_id" json:"order_id"`
	Address         string     `db:"service_address" json:"service_address"`
	City            string     `db:"service_city" json:"service_city"`
	State           string     `db:"service_state" json:"service_state"`
	Zip             string     `db:"service_zip" json:"service_zip"`
	Lat             *float64   `db:"geo_lat" json:"geo_lat"`
	Lng             *float64   `db:"geo_lng" json:"geo_lng"`
	ScheduledStart  *time.Time `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd    *time.Time `db:"scheduled_end" json:"scheduled_end"`
	PayoutEstimated *float64   `db:"payout_estimated" json:"payout_estimated"`
	LineItemsRaw    string     `db:"line_items" json:"-"`
	Description     string     `db:"description" json:"description"`
	AssignedProID   string     `db:"assigned_pro_id" json:"assigned_pro_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`

	// OrderStatus and AssignState are not columns on the jobs table; the
	// enrichment joiner and the assignment merger fill them in.
	OrderStatus string `db:"-" json:"order_status,omitempty"`
	AssignState string `db:"-" json:"assign_state,omitempty"`
}

// HasCoords reports whether the job carries a usable coordinate pair.
func (j *Job) HasCoords() bool {
	return j.Lat != nil && j.Lng != nil
}
