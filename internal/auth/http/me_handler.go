package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/gatekeeper/internal/auth/http/dto"
	"github.com/allisson/gatekeeper/internal/gateway"
	"github.com/allisson/gatekeeper/internal/httputil"
)

// MeHandler reports the identity resolved for the request.
type MeHandler struct{}

// NewMeHandler creates a new MeHandler.
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// RegisterRoutes registers GET /me on r. Any valid credential is accepted.
func (h *MeHandler) RegisterRoutes(r *gateway.Registrar) {
	r.GET("/me", gateway.RoutePolicy{AuthRequired: true, CORS: true}, h.GetHandler)
}

// GetHandler returns the caller's identity.
// GET /v1/me - Requires a valid credential, no scopes.
func (h *MeHandler) GetHandler(c *gin.Context) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}

	httputil.RespondSuccess(c, http.StatusOK, dto.MapIdentityToResponse(identity))
	return nil
}
