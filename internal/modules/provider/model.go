// README: Service provider records consumed by emergency matching.
package provider

import (
	"time"

	"roadaid/internal/types"
)

// ServiceProvider is a mobile auto-service business that can take emergency
// work. Matching treats a provider slice as an immutable snapshot per query.
type ServiceProvider struct {
	ID          types.ID    `json:"id"`
	Name        string      `json:"name"`
	Phone       string      `json:"phone,omitempty"`
	Address     string      `json:"address,omitempty"`
	Position    types.Point `json:"position"`
	IsAvailable bool        `json:"isAvailable"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
}
