package geo

import "strings"

// base32 is the geohash alphabet. 'a', 'i', 'l' and 'o' are excluded.
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// DefaultPrecision gives cells of roughly 1.2 km, which keeps proximity
// queries for city-scale dispatch to a handful of cell lookups.
const DefaultPrecision = 6

// Encode converts a coordinate pair to a geohash of the given precision by
// binary bisection: even bits split longitude, odd bits split latitude,
// every 5 bits become one base32 character.
func Encode(lat, lon float64, precision int) string {
	if precision <= 0 || precision > 12 {
		precision = DefaultPrecision
	}

	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0

	var hash strings.Builder
	isEven := true
	bit := 0
	ch := 0

	for hash.Len() < precision {
		if isEven {
			mid := (minLon + maxLon) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				minLon = mid
			} else {
				maxLon = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		isEven = !isEven
		bit++
		if bit == 5 {
			hash.WriteByte(base32[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// CellSize returns the latitude and longitude extent in degrees of a cell
// at the given precision.
func CellSize(precision int) (latDegrees, lonDegrees float64) {
	if precision <= 0 || precision > 12 {
		precision = DefaultPrecision
	}

	// 5 bits per character, alternating starting with longitude
	bits := 5 * precision
	lonBits := (bits + 1) / 2
	latBits := bits / 2

	latDegrees = 180.0
	for i := 0; i < latBits; i++ {
		latDegrees /= 2
	}
	lonDegrees = 360.0
	for i := 0; i < lonBits; i++ {
		lonDegrees /= 2
	}
	return latDegrees, lonDegrees
}

// CoverBoundingBox returns the hashes of every cell at the given precision
// that intersects the box. Used to enumerate candidate cells for a radius
// query; callers still filter hits by exact distance.
func CoverBoundingBox(minLat, maxLat, minLon, maxLon float64, precision int) []string {
	latStep, lonStep := CellSize(precision)

	minLat = clamp(minLat, -90, 90)
	maxLat = clamp(maxLat, -90, 90)
	minLon = clamp(minLon, -180, 180)
	maxLon = clamp(maxLon, -180, 180)

	seen := make(map[string]bool)
	var cells []string
	for lat := minLat; ; lat += latStep {
		for lon := minLon; ; lon += lonStep {
			h := Encode(clamp(lat, -90, 90), clamp(lon, -180, 180), precision)
			if !seen[h] {
				seen[h] = true
				cells = append(cells, h)
			}
			if lon >= maxLon {
				break
			}
		}
		if lat >= maxLat {
			break
		}
	}
	return cells
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
