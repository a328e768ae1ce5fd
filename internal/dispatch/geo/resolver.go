package geo

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fieldhq/pro-dispatch/internal/api/domain"
)

// Location sources, in priority order. First match wins.
const (
	SourceLive       = "live"
	SourceProfile    = "profile"
	SourceZipGeocode = "zip_geocode"
	SourceNone       = "none"
)

// ProLocation is the technician's resolved position. Lat/Lng are nil when
// no source could resolve; the pipeline then tags every job
// pro_location_pending instead of failing.
type ProLocation struct {
	Lat     *float64
	Lng     *float64
	Source  string
	Zip5    string
	Warning string
}

// HasCoords reports whether the location carries a usable coordinate pair.
func (l ProLocation) HasCoords() bool {
	return l.Lat != nil && l.Lng != nil
}

// Resolver resolves technician and job locations. All failure paths are
// open: a geocode that cannot complete yields "unknown", never an error.
type Resolver struct {
	cache    Cache
	provider Provider
	backfill BackfillPublisher
	logger   *slog.Logger
}

// NewResolver creates a Resolver. backfill may be nil, in which case ZIP
// geocode results are not written back to the profile.
func NewResolver(cache Cache, provider Provider, backfill BackfillPublisher, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:    cache,
		provider: provider,
		backfill: backfill,
		logger:   logger,
	}
}

// ResolveProLocation establishes the technician's position using the first
// available source: live device coordinates, profile coordinates, then a
// ZIP-centroid geocode. On a successful ZIP geocode the resolved pair is
// queued for best-effort profile backfill.
func (r *Resolver) ResolveProLocation(ctx context.Context, profile *domain.ProProfile, live *LatLng) ProLocation {
	zip5 := ""
	if profile != nil {
		zip5 = Zip5(profile.Zip)
	}

	if live != nil {
		return ProLocation{Lat: &live.Lat, Lng: &live.Lng, Source: SourceLive, Zip5: zip5}
	}

	if profile != nil && profile.Lat != nil && profile.Lng != nil {
		return ProLocation{Lat: profile.Lat, Lng: profile.Lng, Source: SourceProfile, Zip5: zip5}
	}

	if zip5 == "" {
		return ProLocation{Source: SourceNone, Warning: "no location source for technician"}
	}

	loc := r.ZipCentroid(ctx, zip5)
	if loc == nil {
		return ProLocation{
			Source:  SourceNone,
			Zip5:    zip5,
			Warning: "zip geocode unresolved",
		}
	}

	if r.backfill != nil && profile != nil {
		msg := BackfillMessage{
			ProfileID: profile.ProID,
			Zip5:      zip5,
			Lat:       loc.Lat,
			Lng:       loc.Lng,
		}
		if err := r.backfill.PublishBackfill(ctx, msg); err != nil {
			r.logger.Warn("Profile coordinate backfill publish failed",
				slog.String("profile_id", profile.ProID),
				slog.String("error", err.Error()),
			)
		}
	}

	return ProLocation{Lat: &loc.Lat, Lng: &loc.Lng, Source: SourceZipGeocode, Zip5: zip5}
}

// ZipCentroid resolves a 5-digit ZIP to its centroid, consulting the cache
// first. Concurrent misses on the same ZIP may each hit the provider; the
// cache write is idempotent so no locking is needed.
func (r *Resolver) ZipCentroid(ctx context.Context, zip5 string) *LatLng {
	if cached, ok, err := r.cache.GetZip(ctx, zip5); err != nil {
		r.logger.Warn("ZIP cache read failed",
			slog.String("zip5", zip5),
			slog.String("error", err.Error()),
		)
	} else if ok {
		return cached
	}

	loc, err := r.provider.Geocode(ctx, zip5)
	if err != nil {
		r.logger.Warn("ZIP geocode failed",
			slog.String("zip5", zip5),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if loc == nil {
		return nil
	}

	if err := r.cache.SetZip(ctx, zip5, *loc, ZipCacheTTL); err != nil {
		r.logger.Warn("ZIP cache write failed",
			slog.String("zip5", zip5),
			slog.String("error", err.Error()),
		)
	}

	return loc
}

// GeocodeAddress resolves a full street address. Fails open: a missing API
// key, malformed response, or network error yields nil, never an error.
func (r *Resolver) GeocodeAddress(ctx context.Context, address, city, state, zip string) *LatLng {
	parts := make([]string, 0, 4)
	for _, p := range []string{address, city, state, zip} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	query := strings.Join(parts, ", ")
	loc, err := r.provider.Geocode(ctx, query)
	if err != nil {
		r.logger.Warn("Address geocode failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return loc
}
