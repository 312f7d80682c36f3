// README: Provider registry handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roadaid/internal/modules/provider"
	"roadaid/internal/types"
)

type ProviderHandler struct {
	providers *provider.Service
}

func NewProviderHandler(svc *provider.Service) *ProviderHandler {
	return &ProviderHandler{providers: svc}
}

type createProviderReq struct {
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Address     string      `json:"address"`
	Position    types.Point `json:"position"`
	IsAvailable bool        `json:"isAvailable"`
}

func (h *ProviderHandler) Create(c *gin.Context) {
	var req createProviderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p := &provider.ServiceProvider{
		ID:          types.ID(uuid.NewString()),
		Name:        req.Name,
		Phone:       req.Phone,
		Address:     req.Address,
		Position:    req.Position,
		IsAvailable: req.IsAvailable,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.providers.Register(c.Request.Context(), p); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProviderHandler) Get(c *gin.Context) {
	p, err := h.providers.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// List returns the whole registry, or only providers currently accepting
// work when ?available=true.
func (h *ProviderHandler) List(c *gin.Context) {
	var (
		ps  []provider.ServiceProvider
		err error
	)
	if c.Query("available") == "true" {
		ps, err = h.providers.ListAvailable(c.Request.Context())
	} else {
		ps, err = h.providers.List(c.Request.Context())
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if ps == nil {
		ps = []provider.ServiceProvider{}
	}
	c.JSON(http.StatusOK, ps)
}

// Nearby handles GET /api/providers/nearby?lat=&lng=&radiusKm=.
func (h *ProviderHandler) Nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		respondError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radius := 50.0
	if v := c.Query("radiusKm"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			respondError(c, http.StatusBadRequest, "invalid radiusKm")
			return
		}
		radius = r
	}
	ps, err := h.providers.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if ps == nil {
		ps = []provider.ServiceProvider{}
	}
	c.JSON(http.StatusOK, ps)
}

type patchProviderReq struct {
	IsAvailable *bool        `json:"isAvailable"`
	Position    *types.Point `json:"position"`
	Address     *string      `json:"address"`
	Phone       *string      `json:"phone"`
}

// Patch handles availability toggles and location updates; both feed the
// live geo board.
func (h *ProviderHandler) Patch(c *gin.Context) {
	var req patchProviderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.providers.Update(c.Request.Context(), types.ID(c.Param("id")), provider.Update{
		IsAvailable: req.IsAvailable,
		Position:    req.Position,
		Address:     req.Address,
		Phone:       req.Phone,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
