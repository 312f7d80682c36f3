// README: Matching store backed by Redis GEO and sets: live provider board
// plus per-request dispatch bookkeeping.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roadaid/internal/types"
)

const (
	providerGeoKey      = "matching:providers"
	dispatchKeyPrefix   = "matching:request:%s:dispatched_at"
	candidatesKeyPrefix = "matching:request:%s:candidates"
	// TTL for dispatch keys; emergencies resolve well within a day but the
	// board keeps a week for dispute review.
	keyTTL = 7 * 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// SetPosition mirrors an available provider's position onto the geo board.
func (s *Store) SetPosition(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, providerGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

// RemovePosition drops a provider from the board when it goes off shift.
func (s *Store) RemovePosition(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, providerGeoKey, string(id)).Err()
}

// NearbyProviderIDs returns board members within radiusKm sorted nearest
// first. The board can lag the registry; authoritative matching goes through
// Service.FindNearest.
func (s *Store) NearbyProviderIDs(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, providerGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

// RecordDispatch records the dispatch timestamp and the candidate set for a
// request.
func (s *Store) RecordDispatch(ctx context.Context, requestID types.ID, providerIDs []types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(requestID), time.Now().UTC().Format(time.RFC3339), keyTTL)
	if len(providerIDs) > 0 {
		members := make([]interface{}, len(providerIDs))
		for i, id := range providerIDs {
			members[i] = string(id)
		}
		key := candidatesKey(requestID)
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetDispatchedAt returns when the request was first routed to providers, and
// whether it has been routed at all.
func (s *Store) GetDispatchedAt(ctx context.Context, requestID types.ID) (time.Time, bool, error) {
	val, err := s.redis.Get(ctx, dispatchedAtKey(requestID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// DispatchedCandidates returns the provider ids recorded for a request.
func (s *Store) DispatchedCandidates(ctx context.Context, requestID types.ID) ([]types.ID, error) {
	vals, err := s.redis.SMembers(ctx, candidatesKey(requestID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(vals))
	for i, v := range vals {
		ids[i] = types.ID(v)
	}
	return ids, nil
}

func dispatchedAtKey(requestID types.ID) string {
	return fmt.Sprintf(dispatchKeyPrefix, string(requestID))
}

func candidatesKey(requestID types.ID) string {
	return fmt.Sprintf(candidatesKeyPrefix, string(requestID))
}
