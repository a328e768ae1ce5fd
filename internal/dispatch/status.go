package dispatch

import "strings"

// NormalizeStatus canonicalizes a status value for comparison: trimmed,
// lowercased, hyphens folded to underscores. Status vocabularies vary across
// deployments ("In-Progress", "in_progress", " QUEUED ") so no comparison in
// this package touches a raw status.
func NormalizeStatus(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// statusSet builds a lookup set of normalized statuses.
func statusSet(statuses ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		set[NormalizeStatus(s)] = struct{}{}
	}
	return set
}

// Bucketing state vocabularies. Lifecycle completion always wins; any state
// recognized by none of these sets falls open into the Offer bucket so a job
// is never silently miscategorized out of existence.
var (
	completedStates = statusSet("done", "paid", "cancelled", "canceled", "closed", "completed")
	upcomingStates  = statusSet("accepted", "assigned", "scheduled", "in_progress", "en_route")
	offerStates     = statusSet("pending", "open", "unassigned", "queued", "new")
)

func inSet(set map[string]struct{}, status string) bool {
	_, ok := set[NormalizeStatus(status)]
	return ok
}
