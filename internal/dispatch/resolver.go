package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/internal/api/dto"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
)

// Storage is the read surface the engine needs, plus nothing else. The only
// write this engine ever causes is the profile coordinate backfill, and that
// goes through the queue, not through here.
type Storage interface {
	GetProProfile(ctx context.Context, proID string) (*domain.ProProfile, error)
	ListRecentJobs(ctx context.Context, limit int) ([]domain.Job, error)
	ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error)
	ListAssignmentsForPro(ctx context.Context, proID string) ([]domain.Assignment, error)
	GetJobsByIDs(ctx context.Context, jobIDs []string) ([]domain.Job, error)
	ListJobsAssignedToPro(ctx context.Context, proID string) ([]domain.Job, error)
}

// Options configures the resolution pipeline.
type Options struct {
	StatusWhitelist    []string
	JobLimit           int
	OrderLimit         int
	TakeRate           float64
	GeocodeConcurrency int
	DefaultRadiusMiles int
}

// Request carries the per-call inputs from the HTTP surface.
type Request struct {
	LiveLat *float64
	LiveLng *float64
	JobID   string
	Debug   bool
}

// Resolver reconstructs a consistent, de-duplicated view of the jobs a
// technician can see from the jobs, orders, assignments, and profile stores.
type Resolver struct {
	storage Storage
	geo     *geo.Resolver
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver creates a Resolver. Zero option fields get safe defaults.
func NewResolver(storage Storage, geoResolver *geo.Resolver, opts Options, logger *slog.Logger) *Resolver {
	if len(opts.StatusWhitelist) == 0 {
		opts.StatusWhitelist = []string{domain.JobStatusQueued, domain.JobStatusScheduled, domain.JobStatusInProgress}
	}
	if opts.JobLimit <= 0 {
		opts.JobLimit = 200
	}
	if opts.OrderLimit <= 0 {
		opts.OrderLimit = 500
	}
	if opts.TakeRate <= 0 {
		opts.TakeRate = 0.75
	}
	if opts.DefaultRadiusMiles <= 0 {
		opts.DefaultRadiusMiles = 25
	}

	return &Resolver{
		storage: storage,
		geo:     geoResolver,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// ResolveJobsForTechnician builds the full offers/upcoming/completed view.
// Auth has already happened by the time this runs; the only fatal outcome
// here is an unreachable store. Everything else degrades: enrichment and
// geocode failures produce pending fields, and an offer-assembly failure
// falls through to a direct assigned-jobs lookup so the technician never
// sees a blank screen because of an enrichment bug.
func (r *Resolver) ResolveJobsForTechnician(ctx context.Context, proID string, req Request) (*dto.TechJobsResponse, error) {
	now := r.now()
	diag := &dto.Diagnostics{}

	profile, err := r.storage.GetProProfile(ctx, proID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnconfigured) {
			return nil, err
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			r.logger.Warn("Profile read failed, continuing without location",
				slog.String("pro_id", proID),
				slog.String("error", err.Error()),
			)
		}
		profile = nil
	}

	var live *geo.LatLng
	if req.LiveLat != nil && req.LiveLng != nil {
		live = &geo.LatLng{Lat: *req.LiveLat, Lng: *req.LiveLng}
	}

	loc := r.geo.ResolveProLocation(ctx, profile, live)
	if profile == nil && loc.Warning == "" {
		loc.Warning = "pro profile not found"
	}

	assignments, err := r.storage.ListAssignmentsForPro(ctx, proID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnconfigured) {
			return nil, err
		}
		r.logger.Warn("Assignment read failed, continuing with empty set",
			slog.String("pro_id", proID),
			slog.String("error", err.Error()),
		)
		assignments = nil
	}

	mode := dto.ModeFull
	buckets, err := r.assemble(ctx, profile, loc, assignments, diag, now)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnconfigured) {
			return nil, err
		}

		r.logger.Error("Offer assembly failed, falling back to direct lookup",
			slog.String("pro_id", proID),
			slog.String("error", err.Error()),
		)
		diag.FallbackReason = err.Error()
		mode = dto.ModeFallbackDirect

		buckets, err = r.fallbackDirect(ctx, proID)
		if err != nil {
			return nil, err
		}
	}

	if req.JobID != "" {
		buckets = filterToJob(buckets, req.JobID)
		if mode == dto.ModeFull {
			mode = dto.ModeSingleJob
		}
	}

	resp := &dto.TechJobsResponse{
		Offers:    r.normalizeAll(buckets.Offers, loc, now),
		Upcoming:  r.normalizeAll(buckets.Upcoming, loc, now),
		Completed: r.normalizeAll(buckets.Completed, loc, now),
		Meta: dto.Meta{
			Mode: mode,
			Geo: dto.GeoMeta{
				Source:  loc.Source,
				Zip5:    loc.Zip5,
				Warning: loc.Warning,
			},
		},
	}
	if req.Debug {
		resp.Meta.Diagnostics = diag
	}

	return resp, nil
}

// assemble runs the full pipeline: read candidates, enrich, merge with
// assignments, filter and rank offers. A panic in any stage is recovered
// and surfaced as an error so the caller can take the fallback path.
func (r *Resolver) assemble(ctx context.Context, profile *domain.ProProfile, loc geo.ProLocation, assignments []domain.Assignment, diag *dto.Diagnostics, now time.Time) (b Buckets, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("offer assembly panicked: %v", rec)
		}
	}()

	raw, err := r.storage.ListRecentJobs(ctx, r.opts.JobLimit)
	if err != nil {
		return Buckets{}, fmt.Errorf("list candidate jobs: %w", err)
	}
	diag.CandidateJobs = len(raw)

	candidates := FilterByStatus(raw, r.opts.StatusWhitelist, diag, r.logger)

	orders, err := r.storage.ListRecentOrders(ctx, r.opts.OrderLimit)
	if err != nil {
		// Degrade: jobs go out with pending payout rather than being hidden.
		r.logger.Warn("Order read failed, enrichment skipped",
			slog.String("error", err.Error()),
		)
		orders = nil
	}

	enriched := EnrichFromOrders(candidates, orders, r.opts.TakeRate, diag, r.logger)
	enriched = GeocodeMissing(ctx, enriched, r.geo, r.opts.GeocodeConcurrency, diag, r.logger)

	byID := make(map[string]int, len(enriched))
	for i := range enriched {
		byID[enriched[i].JobID] = i
	}

	// Merge the technician's assignments with job records. An assignment
	// whose job fell outside the candidate window is fetched directly: a
	// technician must never lose visibility into a job they accepted.
	assignedIDs := make(map[string]struct{}, len(assignments))
	accepted := make(map[string]struct{}, len(assignments))
	var rows []domain.Job
	var missing []string
	missingState := make(map[string]string)

	for _, a := range assignments {
		if NormalizeStatus(a.State) == domain.AssignStateDeclined || NormalizeStatus(a.State) == domain.AssignStateExpired {
			continue
		}
		assignedIDs[a.JobID] = struct{}{}
		if inSet(upcomingStates, a.State) {
			accepted[a.JobID] = struct{}{}
		}

		if i, ok := byID[a.JobID]; ok {
			row := enriched[i]
			row.AssignState = a.State
			rows = append(rows, row)
		} else {
			missing = append(missing, a.JobID)
			missingState[a.JobID] = a.State
		}
	}

	if len(missing) > 0 {
		fetched, ferr := r.storage.GetJobsByIDs(ctx, missing)
		if ferr != nil {
			r.logger.Warn("Assigned job fetch failed",
				slog.String("error", ferr.Error()),
			)
		} else {
			fetched = EnrichFromOrders(fetched, orders, r.opts.TakeRate, diag, r.logger)
			for _, job := range fetched {
				job.AssignState = missingState[job.JobID]
				rows = append(rows, job)
			}
		}
	}

	merged := Bucket(rows)

	// Unclaimed candidates: everything not already tied to this technician.
	unclaimed := make([]domain.Job, 0, len(enriched))
	for _, job := range enriched {
		if _, ok := assignedIDs[job.JobID]; ok {
			continue
		}
		unclaimed = append(unclaimed, job)
	}

	radius := r.opts.DefaultRadiusMiles
	if profile != nil {
		radius = profile.ServiceRadius()
	}

	visible := FilterVisibleOffers(unclaimed, loc, radius, accepted, diag, r.logger)

	offers := append(merged.Offers, visible...)
	return Buckets{
		Offers:    Rank(offers, loc, now),
		Upcoming:  merged.Upcoming,
		Completed: merged.Completed,
	}, nil
}

// fallbackDirect is the simple path: jobs directly assigned on the jobs
// table, bucketed by lifecycle status alone.
func (r *Resolver) fallbackDirect(ctx context.Context, proID string) (Buckets, error) {
	jobs, err := r.storage.ListJobsAssignedToPro(ctx, proID)
	if err != nil {
		return Buckets{}, fmt.Errorf("direct assigned lookup: %w", err)
	}
	return Bucket(jobs), nil
}

func (r *Resolver) normalizeAll(jobs []domain.Job, loc geo.ProLocation, now time.Time) []dto.NormalizedJobDTO {
	out := make([]dto.NormalizedJobDTO, 0, len(jobs))
	for _, job := range jobs {
		d := Normalize(job, loc, r.logger)
		d.Score = Score(job, loc, now)
		out = append(out, d)
	}
	return out
}

func filterToJob(b Buckets, jobID string) Buckets {
	keep := func(jobs []domain.Job) []domain.Job {
		for _, job := range jobs {
			if job.JobID == jobID {
				return []domain.Job{job}
			}
		}
		return nil
	}
	return Buckets{
		Offers:    keep(b.Offers),
		Upcoming:  keep(b.Upcoming),
		Completed: keep(b.Completed),
	}
}
