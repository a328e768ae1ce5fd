package dto

// Field-state companions. Consumers use these to tell "value is zero" apart
// from "value is unknown".
const (
	PayoutStateReady   = "ready"
	PayoutStatePending = "pending"

	DistanceStateReady      = "ready"
	DistanceStateJobPending = "job_location_pending"
	DistanceStateProPending = "pro_location_pending"
)

// LineItem is a single entry on a job's work order. Unknown keys in the raw
// representation are dropped during normalization.
type LineItem struct {
	SKU      string   `json:"sku"`
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Amount   *float64 `json:"amount"`
}

// NormalizedJobDTO is the only job shape exposed externally. Every field is
// guaranteed present; nullable values keep an explicit state companion.
// Payout is null when unknown, never coerced to 0; 0 is reserved for a job
// genuinely confirmed free.
type NormalizedJobDTO struct {
	JobID           string     `json:"job_id"`
	Status          string     `json:"status"`
	OrderID         string     `json:"order_id"`
	Address         string     `json:"service_address"`
	City            string     `json:"service_city"`
	State           string     `json:"service_state"`
	Zip             string     `json:"service_zip"`
	Lat             *float64   `json:"geo_lat"`
	Lng             *float64   `json:"geo_lng"`
	ScheduledStart  string     `json:"scheduled_start"`
	ScheduledEnd    string     `json:"scheduled_end"`
	PayoutEstimated *float64   `json:"payout_estimated"`
	PayoutState     string     `json:"payout_state"`
	DistanceMiles   *float64   `json:"distance_miles"`
	DistanceState   string     `json:"distance_state"`
	LineItems       []LineItem `json:"line_items"`
	Description     string     `json:"description"`
	AssignState     string     `json:"assign_state"`
	Score           int        `json:"score"`
	CreatedAt       string     `json:"created_at"`
}
