package dispatch

import (
	"log/slog"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
)

// FilterByStatus applies the status whitelist in memory rather than in SQL.
// A database-level filter can silently return zero rows when the deployment
// uses a different casing or vocabulary; filtering here keeps the mismatch
// visible. Dropped rows are counted in diagnostics, never silently merged.
func FilterByStatus(jobs []domain.Job, whitelist []string, diag *dto.Diagnostics, logger *slog.Logger) []domain.Job {
	allowed := statusSet(whitelist...)

	kept := make([]domain.Job, 0, len(jobs))
	for _, job := range jobs {
		status := NormalizeStatus(job.Status)
		if _, ok := allowed[status]; !ok {
			diag.DroppedByStatus++
			if diag.DroppedStatuses == nil {
				diag.DroppedStatuses = make(map[string]int)
			}
			diag.DroppedStatuses[status]++
			continue
		}
		kept = append(kept, job)
	}

	if diag.DroppedByStatus > 0 {
		logger.Debug("Jobs dropped by status whitelist",
			slog.Int("dropped", diag.DroppedByStatus),
			slog.Int("kept", len(kept)),
		)
	}

	return kept
}
