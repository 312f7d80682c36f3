// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roadaid/internal/http/handlers"
	"roadaid/internal/http/middleware"
	"roadaid/internal/logger"
	"roadaid/internal/modules/dispatch"
	"roadaid/internal/modules/provider"
	"roadaid/internal/modules/request"
)

func NewRouter(
	dispatchService *dispatch.Service,
	requestService *request.Service,
	providerService *provider.Service,
	log *logger.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Recovery(log))

	emergency := handlers.NewEmergencyHandler(dispatchService, requestService)
	r.POST("/api/emergency-requests", emergency.Create)
	r.GET("/api/emergency-requests", emergency.ListPending)
	r.GET("/api/emergency-requests/customer/:customerId", emergency.ListByCustomer)
	r.GET("/api/emergency-requests/provider/:providerId", emergency.ListByProvider)
	r.GET("/api/emergency-requests/:id", emergency.Get)
	r.PATCH("/api/emergency-requests/:id", emergency.Patch)
	r.POST("/api/emergency-requests/:id/assign", emergency.Assign)
	r.GET("/api/emergency-requests/:id/dispatch", emergency.DispatchRecord)

	providers := handlers.NewProviderHandler(providerService)
	r.POST("/api/providers", providers.Create)
	r.GET("/api/providers", providers.List)
	r.GET("/api/providers/nearby", providers.Nearby)
	r.GET("/api/providers/:id", providers.Get)
	r.PATCH("/api/providers/:id", providers.Patch)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
