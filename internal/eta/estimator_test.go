package eta

import (
	"context"
	"testing"
	"time"

	"roadaid/internal/types"
)

func TestEstimateArrival_FallbackSpeed(t *testing.T) {
	// ~111.19 km apart (one degree of latitude) at 30 km/h ≈ 3.7 hours.
	est := NewEstimator(nil, 30)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	from := types.Point{Lat: 40.0, Lng: -74.0}
	to := types.Point{Lat: 41.0, Lng: -74.0}

	got := est.EstimateArrival(context.Background(), from, to, now)
	travel := got.Sub(now)

	want := time.Duration(111.19 / 30 * float64(time.Hour))
	diff := travel - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 2*time.Minute {
		t.Errorf("travel = %v, want ~%v", travel, want)
	}
}

func TestEstimateArrival_SamePointIsNow(t *testing.T) {
	est := NewEstimator(nil, 30)
	now := time.Now()
	p := types.Point{Lat: 40.0, Lng: -74.0}

	got := est.EstimateArrival(context.Background(), p, p, now)
	if !got.Equal(now) {
		t.Errorf("arrival = %v, want %v", got, now)
	}
}

func TestNewEstimator_GuardsSpeed(t *testing.T) {
	est := NewEstimator(nil, 0)
	if est.avgSpeedKmh != 30 {
		t.Errorf("avgSpeedKmh = %f, want default 30", est.avgSpeedKmh)
	}
}
