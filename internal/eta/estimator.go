// README: Arrival estimation: Google Maps driving time when configured,
// haversine at an average speed otherwise.
package eta

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"roadaid/internal/modules/geo"
	"roadaid/internal/types"
)

type Estimator struct {
	client      *maps.Client
	avgSpeedKmh float64
}

// NewEstimator builds an estimator. client may be nil; estimates then come
// from great-circle distance at avgSpeedKmh.
func NewEstimator(client *maps.Client, avgSpeedKmh float64) *Estimator {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = 30 // default city speed
	}
	return &Estimator{client: client, avgSpeedKmh: avgSpeedKmh}
}

// EstimateArrival returns when a vehicle leaving from at time now should
// reach to. Maps API failures fall back to the haversine estimate; this
// method never fails.
func (e *Estimator) EstimateArrival(ctx context.Context, from, to types.Point, now time.Time) time.Time {
	if e.client != nil {
		if d, err := e.drivingTime(ctx, from, to); err == nil {
			return now.Add(d)
		}
	}
	return now.Add(e.fallbackTravelTime(from, to))
}

func (e *Estimator) drivingTime(ctx context.Context, from, to types.Point) (time.Duration, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination: fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:        maps.TravelModeDriving,
	}
	routes, _, err := e.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}
	return routes[0].Legs[0].Duration, nil
}

func (e *Estimator) fallbackTravelTime(from, to types.Point) time.Duration {
	hours := geo.HaversineKm(from, to) / e.avgSpeedKmh
	return time.Duration(hours * float64(time.Hour))
}
