package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Storage handles the worker's single write path: best-effort profile
// coordinate backfill.
type Storage struct {
	db            *sqlx.DB
	profilesTable string
	logger        *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, profilesTable string, logger *slog.Logger) *Storage {
	if profilesTable == "" {
		profilesTable = "pro_profiles"
	}
	return &Storage{
		db:            db,
		profilesTable: profilesTable,
		logger:        logger,
	}
}

// BackfillProfileCoords writes resolved coordinates onto a profile that has
// none. Profiles that already carry coordinates are left alone: the backfill
// must never clobber a position the technician set themselves. Zero rows
// affected is success; the profile is gone or already filled.
func (s *Storage) BackfillProfileCoords(ctx context.Context, profileID string, lat, lng float64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET geo_lat = $1,
		    geo_lng = $2,
		    updated_at = NOW()
		WHERE pro_id = $3
		  AND (geo_lat IS NULL OR geo_lng IS NULL)
	`, s.profilesTable)

	result, err := s.db.ExecContext(ctx, query, lat, lng, profileID)
	if err != nil {
		return fmt.Errorf("failed to backfill profile coordinates: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Debug("Profile backfill skipped - missing or already has coordinates",
			slog.String("profile_id", profileID),
		)
	} else {
		s.logger.Info("Profile coordinates backfilled",
			slog.String("profile_id", profileID),
		)
	}

	return nil
}
