// Package geo contains pure geographic computation helpers.
package geo

import (
	"math"

	"roadaid/internal/types"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees. The computation is symmetric and
// returns 0 for identical points. Inputs are not range-checked; callers
// validate coordinates at the boundary.
func HaversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// SortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function. less
// breaks distance ties so repeated sorts of equal data stay deterministic.
func SortByDistance[T any](items []T, dist func(T) float64, less func(a, b T) bool) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && greater(items[j], key, dist, less) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}

func greater[T any](a, b T, dist func(T) float64, less func(a, b T) bool) bool {
	da, db := dist(a), dist(b)
	if da != db {
		return da > db
	}
	if less == nil {
		return false
	}
	return less(b, a)
}
