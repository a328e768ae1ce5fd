package dispatch

import (
	"log/slog"
	"strings"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
)

// FilterVisibleOffers decides which jobs are visible as unclaimed offers.
// Guardrails apply in order:
//
//  1. A scheduled job that already carries an assigned-technician id is not
//     an open offer.
//  2. A job whose linked order is unpaid is hidden, unless the technician
//     has already accepted it: visibility must never regress after
//     acceptance.
//  3. Geographic match: exact 5-digit ZIP equality always wins, even over a
//     computed distance that would exclude; otherwise distance within the
//     service radius; with only ZIPs on both sides, a mismatch is logged
//     and let through (flood gate); an unlocatable job is excluded.
func FilterVisibleOffers(jobs []domain.Job, pro geo.ProLocation, radiusMiles int, accepted map[string]struct{}, diag *dto.Diagnostics, logger *slog.Logger) []domain.Job {
	visible := make([]domain.Job, 0, len(jobs))

	for _, job := range jobs {
		if NormalizeStatus(job.Status) == domain.JobStatusScheduled && strings.TrimSpace(job.AssignedProID) != "" {
			diag.ExcludedAssigned++
			continue
		}

		if _, unpaid := domain.UnpaidOrderStatuses[NormalizeStatus(job.OrderStatus)]; unpaid {
			if _, ok := accepted[job.JobID]; !ok {
				diag.ExcludedUnpaid++
				continue
			}
		}

		if !matchesGeo(job, pro, radiusMiles, diag, logger) {
			continue
		}

		visible = append(visible, job)
	}

	return visible
}

func matchesGeo(job domain.Job, pro geo.ProLocation, radiusMiles int, diag *dto.Diagnostics, logger *slog.Logger) bool {
	jobZip := geo.Zip5(job.Zip)

	// ZIP equality is trusted as ground truth over noisy coordinates.
	if pro.Zip5 != "" && jobZip != "" && pro.Zip5 == jobZip {
		return true
	}

	if pro.HasCoords() && job.HasCoords() {
		d := geo.DistanceMiles(*pro.Lat, *pro.Lng, *job.Lat, *job.Lng)
		if d <= float64(radiusMiles) {
			return true
		}
		diag.ExcludedOutOfRange++
		return false
	}

	// Distance is unresolvable; ZIPs on both sides are the only signal.
	// Mismatches pass the flood gate: logged, not excluded.
	if pro.Zip5 != "" && jobZip != "" {
		diag.ZipMismatchesLogged++
		logger.Warn("ZIP mismatch on unlocatable job, including anyway",
			slog.String("job_id", job.JobID),
			slog.String("job_zip", jobZip),
			slog.String("pro_zip", pro.Zip5),
		)
		return true
	}

	// Neither distance nor ZIP can be resolved; an unlocatable job cannot
	// be safely shown.
	diag.ExcludedUnlocatable++
	return false
}
