package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
	"github.com/fieldhq/pro-dispatch/shared/postgresql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Storage reads jobs, orders, assignments, and profiles for the resolution
// engine. All methods are read-only.
type Storage struct {
	db     *sqlx.DB
	schema Schema
	logger *slog.Logger
}

// NewStorage creates a Storage over the shared PostgreSQL client.
func NewStorage(pg *postgresql.Client, schema Schema, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		schema: schema.withDefaults(),
		logger: logger,
	}
}

// jobColumns builds the job select list for a given assigned-technician
// candidate column. Text fields coalesce to "" so drifted nullable columns
// scan cleanly; genuinely optional fields stay nullable pointers.
func (s *Storage) jobColumns(assignedCol string) string {
	assigned := "''"
	if assignedCol != "" {
		assigned = fmt.Sprintf("COALESCE(%s::text, '')", assignedCol)
	}
	return fmt.Sprintf(`
			job_id,
			COALESCE(status, '') AS status,
			COALESCE(order_id, '') AS order_id,
			COALESCE(service_address, '') AS service_address,
			COALESCE(service_city, '') AS service_city,
			COALESCE(service_state, '') AS service_state,
			COALESCE(service_zip, '') AS service_zip,
			geo_lat,
			geo_lng,
			scheduled_start,
			scheduled_end,
			payout_estimated,
			COALESCE(line_items::text, '') AS line_items,
			COALESCE(description, '') AS description,
			%s AS assigned_pro_id,
			created_at`, assigned)
}

// selectJobs runs a job query once per assigned-column candidate until one
// matches the deployment's schema. Only an undefined-column error advances
// to the next candidate; anything else is surfaced immediately.
func (s *Storage) selectJobs(ctx context.Context, where string, args ...interface{}) ([]domain.Job, error) {
	candidates := append([]string{}, s.schema.AssignedProColumns...)
	candidates = append(candidates, "") // last resort: no assigned column

	var lastErr error
	for _, col := range candidates {
		query := fmt.Sprintf("SELECT %s FROM %s %s", s.jobColumns(col), s.schema.JobsTable, where)

		var jobs []domain.Job
		err := s.db.SelectContext(ctx, &jobs, query, args...)
		if err == nil {
			return jobs, nil
		}
		if !isUndefinedColumn(err) {
			return nil, err
		}

		s.logger.Debug("Assigned-technician column not in schema, trying next candidate",
			slog.String("column", col),
		)
		lastErr = err
	}

	return nil, fmt.Errorf("no assigned-technician column candidate matched: %w", lastErr)
}

// ListRecentJobs reads raw job rows most-recent-first. Status filtering is
// deliberately not pushed into SQL; see dispatch.FilterByStatus.
func (s *Storage) ListRecentJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	jobs, err := s.selectJobs(ctx, "ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, s.storeErr("list recent jobs", err)
	}
	return jobs, nil
}

// GetJobsByIDs fetches specific jobs regardless of status or recency.
func (s *Storage) GetJobsByIDs(ctx context.Context, jobIDs []string) ([]domain.Job, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	jobs, err := s.selectJobs(ctx, "WHERE job_id = ANY($1)", pq.Array(jobIDs))
	if err != nil {
		return nil, s.storeErr("get jobs by ids", err)
	}
	return jobs, nil
}

// ListJobsAssignedToPro is the fallback read: jobs carrying the technician's
// id directly on the jobs table.
func (s *Storage) ListJobsAssignedToPro(ctx context.Context, proID string) ([]domain.Job, error) {
	var lastErr error
	for _, col := range s.schema.AssignedProColumns {
		query := fmt.Sprintf(
			"SELECT %s FROM %s WHERE %s::text = $1 ORDER BY created_at DESC",
			s.jobColumns(col), s.schema.JobsTable, col,
		)

		var jobs []domain.Job
		err := s.db.SelectContext(ctx, &jobs, query, proID)
		if err == nil {
			return jobs, nil
		}
		if !isUndefinedColumn(err) {
			return nil, s.storeErr("list assigned jobs", err)
		}
		lastErr = err
	}
	return nil, s.storeErr("list assigned jobs", fmt.Errorf("no assigned-technician column candidate matched: %w", lastErr))
}

// ListRecentOrders reads recent orders for enrichment, newest first.
func (s *Storage) ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT
			order_id,
			COALESCE(status, '') AS status,
			subtotal,
			COALESCE(customer_name, '') AS customer_name,
			COALESCE(customer_email, '') AS customer_email,
			COALESCE(customer_phone, '') AS customer_phone,
			COALESCE(service_address, '') AS service_address,
			COALESCE(service_city, '') AS service_city,
			COALESCE(service_state, '') AS service_state,
			COALESCE(service_zip, '') AS service_zip,
			COALESCE(metadata, '{}'::jsonb) AS metadata,
			created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1`, s.schema.OrdersTable)

	var orders []domain.Order
	if err := s.db.SelectContext(ctx, &orders, query, limit); err != nil {
		return nil, s.storeErr("list recent orders", err)
	}
	return orders, nil
}

// ListAssignmentsForPro reads every assignment row for a technician.
func (s *Storage) ListAssignmentsForPro(ctx context.Context, proID string) ([]domain.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT assignment_id, job_id, pro_id, COALESCE(state, '') AS state, created_at, updated_at
		FROM %s
		WHERE pro_id = $1
		ORDER BY updated_at DESC`, s.schema.AssignmentsTable)

	var assignments []domain.Assignment
	if err := s.db.SelectContext(ctx, &assignments, query, proID); err != nil {
		return nil, s.storeErr("list assignments", err)
	}
	return assignments, nil
}

// GetProProfile reads a technician profile.
func (s *Storage) GetProProfile(ctx context.Context, proID string) (*domain.ProProfile, error) {
	query := fmt.Sprintf(`
		SELECT
			pro_id,
			COALESCE(email, '') AS email,
			COALESCE(address, '') AS address,
			COALESCE(city, '') AS city,
			COALESCE(state, '') AS state,
			COALESCE(zip, '') AS zip,
			geo_lat,
			geo_lng,
			COALESCE(service_radius_miles, 0) AS service_radius_miles
		FROM %s
		WHERE pro_id = $1`, s.schema.ProfilesTable)

	var profile domain.ProProfile
	err := s.db.GetContext(ctx, &profile, query, proID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, s.storeErr("get pro profile", err)
	}
	return &profile, nil
}

// storeErr classifies a database error. Connectivity and missing-relation
// failures map to ErrStoreUnconfigured, the one fatal non-auth condition.
func (s *Storage) storeErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := pqErr.Code.Class()
		if class == "08" || class == "28" || class == "3D" || pqErr.Code == "42P01" {
			return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnconfigured, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnconfigured, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUndefinedColumn(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42703"
}
