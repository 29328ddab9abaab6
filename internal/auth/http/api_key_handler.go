// Package http provides HTTP handlers for API key management and identity introspection.
package http

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/auth/http/dto"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/gateway"
	"github.com/allisson/gatekeeper/internal/httputil"
)

// APIKeyHandler handles HTTP requests for the API key lifecycle. Every operation
// acts on the keys owned by the authenticated identity.
type APIKeyHandler struct {
	apiKeyUseCase authUseCase.APIKeyUseCase
	logger        *slog.Logger
}

// NewAPIKeyHandler creates a new API key handler.
func NewAPIKeyHandler(apiKeyUseCase authUseCase.APIKeyUseCase, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyUseCase: apiKeyUseCase,
		logger:        logger,
	}
}

// RegisterRoutes registers the API key routes on r.
func (h *APIKeyHandler) RegisterRoutes(r *gateway.Registrar) {
	read := gateway.RoutePolicy{
		AuthRequired:   true,
		RequiredScopes: []string{authDomain.ScopeAPIKeysRead},
		CORS:           true,
	}
	write := gateway.RoutePolicy{
		AuthRequired:   true,
		RequiredScopes: []string{authDomain.ScopeAPIKeysWrite},
		CORS:           true,
	}
	list := read
	list.Schema = gateway.Query[dto.ListAPIKeysRequest]()
	create := write
	create.Schema = gateway.JSONBody[dto.CreateAPIKeyRequest]()

	r.GET("/api-keys", list, h.ListHandler)
	r.POST("/api-keys", create, h.CreateHandler)
	r.GET("/api-keys/:id", read, h.GetHandler)
	r.POST("/api-keys/:id/revoke", write, h.RevokeHandler)
	r.POST("/api-keys/:id/rotate", write, h.RotateHandler)
}

// CreateHandler issues a new API key for the caller.
// POST /v1/api-keys - Requires api_keys.write.
// Returns 201 Created with the plain key, shown only once.
//
// An API key caller can only issue keys with scopes it holds itself.
func (h *APIKeyHandler) CreateHandler(c *gin.Context) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	req, ok := gateway.GetInput[*dto.CreateAPIKeyRequest](c.Request.Context())
	if !ok {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "missing request body")
	}

	if identity.AuthMode == authDomain.AuthModeAPIKey {
		if missing := authDomain.MissingScopes(identity.GrantedScopes, req.Scopes); len(missing) > 0 {
			return &authDomain.InsufficientScopeError{
				Required: slices.Clone(req.Scopes),
				Missing:  missing,
			}
		}
	}

	output, err := h.apiKeyUseCase.Create(c.Request.Context(), req.ToInput(identity.ID))
	if err != nil {
		return err
	}

	h.logger.Info("api key created",
		slog.String("key_id", output.ID.String()),
		slog.String("key_prefix", output.KeyPrefix),
		slog.String("owner_id", identity.ID))

	httputil.RespondSuccess(c, http.StatusCreated, dto.MapCreateOutputToResponse(output))
	return nil
}

// ListHandler lists the caller's API keys.
// GET /v1/api-keys?offset=0&limit=50 - Requires api_keys.read.
func (h *APIKeyHandler) ListHandler(c *gin.Context) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	req, ok := gateway.GetInput[*dto.ListAPIKeysRequest](c.Request.Context())
	if !ok {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "missing query parameters")
	}

	apiKeys, err := h.apiKeyUseCase.List(c.Request.Context(), identity.ID, req.Offset, req.Limit)
	if err != nil {
		return err
	}

	httputil.RespondSuccess(c, http.StatusOK, dto.MapAPIKeysToResponse(apiKeys))
	return nil
}

// GetHandler returns one of the caller's API keys.
// GET /v1/api-keys/:id - Requires api_keys.read.
func (h *APIKeyHandler) GetHandler(c *gin.Context) error {
	identity, apiKeyID, err := identityAndKeyID(c)
	if err != nil {
		return err
	}

	apiKey, err := h.apiKeyUseCase.Get(c.Request.Context(), identity.ID, apiKeyID)
	if err != nil {
		return err
	}

	httputil.RespondSuccess(c, http.StatusOK, dto.MapAPIKeyToResponse(apiKey))
	return nil
}

// RevokeHandler deactivates one of the caller's API keys.
// POST /v1/api-keys/:id/revoke - Requires api_keys.write.
// Returns 200 OK with the revoked key.
func (h *APIKeyHandler) RevokeHandler(c *gin.Context) error {
	identity, apiKeyID, err := identityAndKeyID(c)
	if err != nil {
		return err
	}

	if err := h.apiKeyUseCase.Revoke(c.Request.Context(), identity.ID, apiKeyID); err != nil {
		return err
	}

	apiKey, err := h.apiKeyUseCase.Get(c.Request.Context(), identity.ID, apiKeyID)
	if err != nil {
		return err
	}

	h.logger.Info("api key revoked",
		slog.String("key_id", apiKeyID.String()),
		slog.String("owner_id", identity.ID))

	httputil.RespondSuccess(c, http.StatusOK, dto.MapAPIKeyToResponse(apiKey))
	return nil
}

// RotateHandler replaces one of the caller's API keys with a new secret.
// POST /v1/api-keys/:id/rotate - Requires api_keys.write.
// Returns 201 Created with the replacement key, shown only once.
func (h *APIKeyHandler) RotateHandler(c *gin.Context) error {
	identity, apiKeyID, err := identityAndKeyID(c)
	if err != nil {
		return err
	}

	output, err := h.apiKeyUseCase.Rotate(c.Request.Context(), identity.ID, apiKeyID)
	if err != nil {
		return err
	}

	h.logger.Info("api key rotated",
		slog.String("old_key_id", apiKeyID.String()),
		slog.String("key_id", output.ID.String()),
		slog.String("key_prefix", output.KeyPrefix),
		slog.String("owner_id", identity.ID))

	httputil.RespondSuccess(c, http.StatusCreated, dto.MapCreateOutputToResponse(output))
	return nil
}

func requireIdentity(c *gin.Context) (*authDomain.Identity, error) {
	identity, ok := gateway.GetIdentity(c.Request.Context())
	if !ok {
		return nil, authDomain.ErrInvalidCredential
	}
	return identity, nil
}

func identityAndKeyID(c *gin.Context) (*authDomain.Identity, uuid.UUID, error) {
	identity, err := requireIdentity(c)
	if err != nil {
		return nil, uuid.Nil, err
	}

	apiKeyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, uuid.Nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid api key id format: must be a valid UUID")
	}
	return identity, apiKeyID, nil
}
