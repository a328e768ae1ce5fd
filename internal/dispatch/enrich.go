package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"golang.org/x/sync/errgroup"
)

// metadata keys an order may use to back-reference its job and carry fields
// the job row is missing.
const (
	metaJobID          = "job_id"
	metaPayoutEstimate = "payout_estimate"
	metaDescription    = "description"
	metaLineItems      = "line_items"
	metaScheduledStart = "scheduled_start"
	metaScheduledEnd   = "scheduled_end"
)

// EnrichFromOrders backfills missing job fields by joining against orders.
// Resolution order per job: exact job-id match in order metadata, then
// direct order-id match. Merge is job-value-wins except payout, which is
// order-authoritative (subtotal x take rate, else an explicit metadata
// payout field): payout is a financial fact and must not be reconstructed
// from possibly-stale job data. A job with no resolvable order passes
// through unchanged: absence of an order must never hide a job.
func EnrichFromOrders(jobs []domain.Job, orders []domain.Order, takeRate float64, diag *dto.Diagnostics, logger *slog.Logger) []domain.Job {
	byJobID := make(map[string]*domain.Order, len(orders))
	byOrderID := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		o := &orders[i]
		byOrderID[o.OrderID] = o
		if jid := o.MetaString(metaJobID); jid != "" {
			byJobID[jid] = o
		}
	}

	out := make([]domain.Job, len(jobs))
	for i, job := range jobs {
		order := byJobID[job.JobID]
		if order == nil && job.OrderID != "" {
			order = byOrderID[job.OrderID]
		}
		if order == nil {
			out[i] = job
			continue
		}
		diag.OrdersMatched++
		out[i] = mergeOrder(job, order, takeRate, logger)
	}

	return out
}

func mergeOrder(job domain.Job, order *domain.Order, takeRate float64, logger *slog.Logger) domain.Job {
	merged := job
	merged.OrderStatus = order.Status
	if merged.OrderID == "" {
		merged.OrderID = order.OrderID
	}

	if merged.Address == "" {
		merged.Address = order.Address
	}
	if merged.City == "" {
		merged.City = order.City
	}
	if merged.State == "" {
		merged.State = order.State
	}
	if merged.Zip == "" {
		merged.Zip = order.Zip
	}
	if merged.Description == "" {
		merged.Description = order.MetaString(metaDescription)
	}

	if merged.ScheduledStart == nil {
		merged.ScheduledStart = parseMetaTime(order, metaScheduledStart)
	}
	if merged.ScheduledEnd == nil {
		merged.ScheduledEnd = parseMetaTime(order, metaScheduledEnd)
	}

	if merged.LineItemsRaw == "" {
		if items, ok := order.Metadata()[metaLineItems]; ok {
			if raw, err := json.Marshal(items); err == nil {
				merged.LineItemsRaw = string(raw)
			}
		}
	}

	// Payout: order-authoritative.
	if order.Subtotal != nil {
		payout := math.Round(*order.Subtotal*takeRate*100) / 100
		merged.PayoutEstimated = &payout
	} else if payout, ok := order.MetaFloat(metaPayoutEstimate); ok {
		merged.PayoutEstimated = &payout
	} else if merged.PayoutEstimated == nil {
		logger.Debug("Order matched but carries no payout data",
			slog.String("job_id", job.JobID),
			slog.String("order_id", order.OrderID),
		)
	}

	return merged
}

func parseMetaTime(order *domain.Order, key string) *time.Time {
	raw := order.MetaString(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// GeocodeMissing resolves coordinates for jobs that have an address but no
// coordinate pair. The fan-out is bounded to cap concurrent calls to the
// geocoding provider, and results land at their original index so ordering
// is preserved. Failures leave the job without coordinates; the normalizer
// tags those job_location_pending.
func GeocodeMissing(ctx context.Context, jobs []domain.Job, resolver *geo.Resolver, concurrency int, diag *dto.Diagnostics, logger *slog.Logger) []domain.Job {
	if concurrency <= 0 {
		concurrency = 4
	}

	out := make([]domain.Job, len(jobs))
	copy(out, jobs)

	var resolved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range out {
		if out[i].HasCoords() {
			continue
		}
		if out[i].Address == "" && out[i].City == "" && out[i].Zip == "" {
			continue
		}

		i := i
		g.Go(func() error {
			job := &out[i]
			loc := resolver.GeocodeAddress(gctx, job.Address, job.City, job.State, job.Zip)
			if loc == nil {
				return nil
			}
			job.Lat = &loc.Lat
			job.Lng = &loc.Lng
			resolved.Add(1)
			return nil
		})
	}

	// Workers only ever return nil; Wait is for completion, not errors.
	_ = g.Wait()

	diag.JobsGeocoded = int(resolved.Load())
	if diag.JobsGeocoded > 0 {
		logger.Debug("Job coordinates resolved during enrichment",
			slog.Int("geocoded", diag.JobsGeocoded),
		)
	}

	return out
}
