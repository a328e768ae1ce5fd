package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"github.com/fieldhq/pro-dispatch/internal/worker/domain"
)

// processBackfill applies one profile coordinate backfill. Messages usually
// carry the already-resolved pair; a ZIP-only message is re-resolved through
// the shared cache and provider.
func (w *Worker) processBackfill(ctx context.Context, msg geo.BackfillMessage) error {
	if msg.ProfileID == "" {
		return fmt.Errorf("%w: profile_id missing", domain.ErrInvalidPayload)
	}

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	lat, lng := msg.Lat, msg.Lng
	if lat == 0 && lng == 0 {
		zip5 := geo.Zip5(msg.Zip5)
		if zip5 == "" {
			return fmt.Errorf("%w: no coordinates and no zip", domain.ErrUnresolvable)
		}

		loc := w.geo.ZipCentroid(ctx, zip5)
		if loc == nil {
			// Provider outage or rate limit; worth another pass.
			return domain.NewRetryableError(fmt.Errorf("zip %s did not resolve", zip5))
		}
		lat, lng = loc.Lat, loc.Lng
	}

	if err := w.storage.BackfillProfileCoords(ctx, msg.ProfileID, lat, lng); err != nil {
		return domain.NewRetryableError(err)
	}

	w.logger.Debug("Backfill applied",
		slog.String("backfill_id", msg.BackfillID),
		slog.String("profile_id", msg.ProfileID),
	)

	return nil
}
