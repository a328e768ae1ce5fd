package geo

import "math"

// earthRadiusMiles is the mean Earth radius used for great-circle distance.
const earthRadiusMiles = 3959.0

// LatLng is a resolved coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMiles returns the haversine great-circle distance between two
// points, rounded to one decimal mile. Symmetric in its arguments.
func DistanceMiles(aLat, aLng, bLat, bLng float64) float64 {
	la1 := aLat * math.Pi / 180
	la2 := bLat * math.Pi / 180
	dLat := (bLat - aLat) * math.Pi / 180
	dLng := (bLng - aLng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	d := 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))

	return math.Round(d*10) / 10
}

// Zip5 extracts the leading 5-digit ZIP from a raw ZIP value ("29649-1234"
// -> "29649"). Returns "" when the value has no usable 5-digit prefix.
func Zip5(raw string) string {
	digits := 0
	for digits < len(raw) && raw[digits] >= '0' && raw[digits] <= '9' {
		digits++
	}
	if digits < 5 {
		return ""
	}
	return raw[:5]
}
