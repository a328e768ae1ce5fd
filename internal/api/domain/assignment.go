package domain

import "time"

// Assignment states. Assignment state is independent of the Job lifecycle:
// a Job can be queued while its Assignment is accepted. Lifecycle completion
// always wins when bucketing.
const (
	AssignStatePending  = "pending"
	AssignStateAccepted = "accepted"
	AssignStateDeclined = "declined"
	AssignStateExpired  = "expired"
)

// Assignment tracks a technician's relationship to a Job.
type Assignment struct {
	AssignmentID string    `db:"assignment_id"`
	JobID        string    `db:"job_id"`
	ProID        string    `db:"pro_id"`
	State        string    `db:"state"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
