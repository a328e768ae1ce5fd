package domain

const (
	// MinServiceRadiusMiles and MaxServiceRadiusMiles bound the radius a
	// technician may configure.
	MinServiceRadiusMiles = 1
	MaxServiceRadiusMiles = 250
)

// ProProfile is the technician record. Coordinates are best-effort: when
// absent the geo resolver falls back to a ZIP-centroid geocode and queues a
// backfill of the resolved pair.
type ProProfile struct {
	ProID              string   `db:"pro_id"`
	Email              string   `db:"email"`
	Address            string   `db:"address"`
	City               string   `db:"city"`
	State              string   `db:"state"`
	Zip                string   `db:"zip"`
	Lat                *float64 `db:"geo_lat"`
	Lng                *float64 `db:"geo_lng"`
	ServiceRadiusMiles int      `db:"service_radius_miles"`
}

// ServiceRadius returns the configured radius clamped to [1, 250] miles.
// A zero/unset radius clamps up to the minimum rather than matching nothing.
func (p *ProProfile) ServiceRadius() int {
	r := p.ServiceRadiusMiles
	if r < MinServiceRadiusMiles {
		return MinServiceRadiusMiles
	}
	if r > MaxServiceRadiusMiles {
		return MaxServiceRadiusMiles
	}
	return r
}
