package dto

// Resolution modes reported in meta.mode.
const (
	ModeFull           = "full"
	ModeFallbackDirect = "fallback_direct"
	ModeSingleJob      = "single_job"
)

// TechJobsResponse is the response shape for the technician job feed.
// The three buckets are always arrays, never null.
type TechJobsResponse struct {
	Offers    []NormalizedJobDTO `json:"offers"`
	Upcoming  []NormalizedJobDTO `json:"upcoming"`
	Completed []NormalizedJobDTO `json:"completed"`
	Meta      Meta               `json:"meta"`
}

// Meta describes how the response was assembled.
type Meta struct {
	Mode        string       `json:"mode"`
	Geo         GeoMeta      `json:"geo"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// GeoMeta reports which source resolved the technician's position.
type GeoMeta struct {
	Source  string `json:"source"`
	Zip5    string `json:"zip5,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Diagnostics surfaces pipeline counters when the caller asks for debug
// output. Dropped rows are counted here, never silently merged.
type Diagnostics struct {
	CandidateJobs        int            `json:"candidate_jobs"`
	DroppedByStatus      int            `json:"dropped_by_status"`
	DroppedStatuses      map[string]int `json:"dropped_statuses,omitempty"`
	OrdersMatched        int            `json:"orders_matched"`
	JobsGeocoded         int            `json:"jobs_geocoded"`
	ExcludedAssigned     int            `json:"excluded_assigned"`
	ExcludedUnpaid       int            `json:"excluded_unpaid"`
	ExcludedOutOfRange   int            `json:"excluded_out_of_range"`
	ExcludedUnlocatable  int            `json:"excluded_unlocatable"`
	ZipMismatchesLogged  int            `json:"zip_mismatches_logged"`
	FallbackReason       string         `json:"fallback_reason,omitempty"`
}
