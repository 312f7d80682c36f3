// README: Emergency request handlers: submission, lookup, dispatch board,
// partial updates, assignment.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roadaid/internal/modules/dispatch"
	"roadaid/internal/modules/matching"
	"roadaid/internal/modules/request"
	"roadaid/internal/types"
)

type EmergencyHandler struct {
	dispatch *dispatch.Service
	requests *request.Service
}

func NewEmergencyHandler(dispatchSvc *dispatch.Service, requestSvc *request.Service) *EmergencyHandler {
	return &EmergencyHandler{dispatch: dispatchSvc, requests: requestSvc}
}

type submitReq struct {
	CustomerID       string              `json:"customerId"`
	IssueType        string              `json:"issueType"`
	Description      string              `json:"description"`
	UrgencyLevel     string              `json:"urgencyLevel"`
	CustomerLocation request.Location    `json:"customerLocation"`
	VehicleInfo      request.VehicleInfo `json:"vehicleInfo"`
	IssuePhoto       string              `json:"issuePhoto"`
}

type submitResp struct {
	Request         *request.EmergencyRequest `json:"request"`
	NearbyProviders interface{}               `json:"nearbyProviders"`
}

// Create handles POST /api/emergency-requests: validates intake, creates the
// pending request, and responds with the ranked nearby providers.
func (h *EmergencyHandler) Create(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.dispatch.Submit(c.Request.Context(), dispatch.SubmitCommand{
		CustomerID:       types.ID(req.CustomerID),
		IssueType:        request.IssueType(req.IssueType),
		Description:      req.Description,
		UrgencyLevel:     request.Urgency(req.UrgencyLevel),
		CustomerLocation: req.CustomerLocation,
		VehicleInfo:      req.VehicleInfo,
		IssuePhoto:       req.IssuePhoto,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitResp{
		Request:         res.Request,
		NearbyProviders: matching.Providers(res.Candidates),
	})
}

func (h *EmergencyHandler) Get(c *gin.Context) {
	r, err := h.requests.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *EmergencyHandler) ListByCustomer(c *gin.Context) {
	rs, err := h.requests.ListByCustomer(c.Request.Context(), types.ID(c.Param("customerId")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyNotNull(rs))
}

func (h *EmergencyHandler) ListByProvider(c *gin.Context) {
	rs, err := h.requests.ListByProvider(c.Request.Context(), types.ID(c.Param("providerId")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyNotNull(rs))
}

// ListPending serves the dispatch board: every request still waiting for a
// provider.
func (h *EmergencyHandler) ListPending(c *gin.Context) {
	rs, err := h.requests.ListPending(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyNotNull(rs))
}

// DispatchRecord serves the board detail for one request: dispatch time and
// the providers it was routed to.
func (h *EmergencyHandler) DispatchRecord(c *gin.Context) {
	rec, err := h.dispatch.DispatchRecord(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type patchReq struct {
	Status           *string    `json:"status"`
	ProviderID       *string    `json:"providerId"`
	EstimatedArrival *time.Time `json:"estimatedArrival"`
	TotalAmount      *float64   `json:"totalAmount"`
	Notes            *string    `json:"notes"`
}

// Patch handles PATCH /api/emergency-requests/:id, the partial-update
// contract. Timestamp stamping is server-side and idempotent.
func (h *EmergencyHandler) Patch(c *gin.Context) {
	var body patchReq
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	upd := request.Update{
		EstimatedArrival: body.EstimatedArrival,
		TotalAmount:      body.TotalAmount,
		Notes:            body.Notes,
	}
	if body.Status != nil {
		s := request.Status(*body.Status)
		if !request.ValidStatus(s) {
			respondError(c, http.StatusBadRequest, "unknown status")
			return
		}
		upd.Status = &s
	}
	if body.ProviderID != nil {
		id := types.ID(*body.ProviderID)
		upd.ProviderID = &id
	}

	r, err := h.dispatch.Update(c.Request.Context(), types.ID(c.Param("id")), upd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type assignReq struct {
	ProviderID string `json:"providerId"`
}

// Assign handles POST /api/emergency-requests/:id/assign: sets the provider,
// stamps assignedAt once, and estimates arrival.
func (h *EmergencyHandler) Assign(c *gin.Context) {
	var body assignReq
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.dispatch.Assign(c.Request.Context(), dispatch.AssignCommand{
		RequestID:  types.ID(c.Param("id")),
		ProviderID: types.ID(body.ProviderID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// emptyNotNull keeps list responses as [] instead of null.
func emptyNotNull(rs []request.EmergencyRequest) []request.EmergencyRequest {
	if rs == nil {
		return []request.EmergencyRequest{}
	}
	return rs
}
