// README: Matching candidates produced for one emergency query.
package matching

import (
	"roadaid/internal/modules/provider"
)

// Candidate pairs a provider with its computed distance from the request
// origin. Candidates are ephemeral; they are never persisted.
type Candidate struct {
	Provider   provider.ServiceProvider `json:"provider"`
	DistanceKm float64                  `json:"distanceKm"`
}

// Providers strips distances, returning the ranked provider list in order.
func Providers(candidates []Candidate) []provider.ServiceProvider {
	out := make([]provider.ServiceProvider, len(candidates))
	for i, c := range candidates {
		out[i] = c.Provider
	}
	return out
}
