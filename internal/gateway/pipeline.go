package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	"github.com/allisson/gatekeeper/internal/httputil"
	"github.com/allisson/gatekeeper/internal/metrics"
	"github.com/allisson/gatekeeper/internal/ratelimit"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// Pipeline stages, used as the "stage" label of rejection metrics.
const (
	StageAuthenticate = "authenticate"
	StageAuthorize    = "authorize"
	StageRateLimit    = "rate_limit"
	StageValidate     = "validate"
	StageHandler      = "handler"
)

// HandlerFunc is a downstream handler. A returned error is rendered by the
// pipeline; the handler writes the response only on success.
type HandlerFunc func(c *gin.Context) error

// Pipeline wraps handlers with the gateway stages.
type Pipeline struct {
	authenticator authUseCase.Authenticator
	limiter       ratelimit.Limiter
	defaultLimit  RateLimitPolicy
	cors          gin.HandlerFunc
	metrics       metrics.GatewayMetrics
	logger        *slog.Logger
}

// NewPipeline creates a Pipeline.
//
// A nil limiter disables rate limiting for every route. A nil corsHandler makes
// CORS routes answer preflights with a bare 204 and skip origin checks.
func NewPipeline(
	authenticator authUseCase.Authenticator,
	limiter ratelimit.Limiter,
	defaultLimit RateLimitPolicy,
	corsHandler gin.HandlerFunc,
	gatewayMetrics metrics.GatewayMetrics,
	logger *slog.Logger,
) *Pipeline {
	if gatewayMetrics == nil {
		gatewayMetrics = metrics.NewNoOpGatewayMetrics()
	}
	return &Pipeline{
		authenticator: authenticator,
		limiter:       limiter,
		defaultLimit:  defaultLimit,
		cors:          corsHandler,
		metrics:       gatewayMetrics,
		logger:        logger,
	}
}

// Wrap returns a gin handler running the stages for policy and then handler.
// The policy is copied, so later changes by the caller have no effect.
//
// Stages short-circuit on the first failure:
//  1. CORS (preflight answered here)
//  2. Authentication, when AuthRequired
//  3. Scope authorization
//  4. Rate limiting, keyed by identity or client IP
//  5. Input binding and validation
//  6. Handler, with identity and input attached to the request context
//
// Errors and panics from any stage are rendered with httputil.HandleErrorGin.
func (p *Pipeline) Wrap(policy RoutePolicy, handler HandlerFunc) gin.HandlerFunc {
	policy = policy.clone()

	return func(c *gin.Context) {
		route := policy.Name
		if route == "" {
			route = c.Request.Method + " " + c.FullPath()
		}

		defer p.recoverPanic(c, route)

		if c.Request.Method == http.MethodOptions {
			p.preflight(c, policy.CORS)
			return
		}

		if policy.CORS && p.cors != nil {
			p.cors(c)
			if c.IsAborted() {
				return
			}
		}

		ctx := c.Request.Context()

		var identity *authDomain.Identity
		if policy.AuthRequired {
			var err error
			identity, err = p.authenticator.Authenticate(ctx, c.GetHeader("Authorization"))
			if err != nil {
				p.reject(c, route, StageAuthenticate, err)
				return
			}
		}

		if err := authDomain.Authorize(identity, policy.RequiredScopes); err != nil {
			p.reject(c, route, StageAuthorize, err)
			return
		}

		if !p.admit(c, route, policy.RateLimit, identity) {
			return
		}

		var input any
		if policy.Schema != nil {
			var err error
			input, err = policy.Schema.Bind(c)
			if err != nil {
				p.reject(c, route, StageValidate, err)
				return
			}
		}

		if identity != nil {
			ctx = WithIdentity(ctx, identity)
		}
		if input != nil {
			ctx = WithInput(ctx, input)
		}
		c.Request = c.Request.WithContext(ctx)

		if err := handler(c); err != nil {
			p.reject(c, route, StageHandler, err)
		}
	}
}

// preflight answers an OPTIONS request. CORS routes go through the CORS handler,
// which writes the Access-Control headers; everything else gets a bare 204.
func (p *Pipeline) preflight(c *gin.Context, corsEnabled bool) {
	if corsEnabled && p.cors != nil {
		p.cors(c)
	}
	if !c.IsAborted() {
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// admit applies the route's rate limit and reports whether the request may continue.
// Limiter failures are logged and the request is admitted.
func (p *Pipeline) admit(c *gin.Context, route string, override *RateLimitPolicy, identity *authDomain.Identity) bool {
	limit := p.defaultLimit
	if override != nil {
		limit = *override
	}
	if p.limiter == nil || limit.Disabled || limit.Requests <= 0 || limit.Window <= 0 {
		return true
	}

	clientKey := "ip:" + c.ClientIP()
	if identity != nil {
		clientKey = "id:" + identity.ID
	}

	decision, err := p.limiter.Admit(c.Request.Context(), route, clientKey, limit.Requests, limit.Window)
	if err != nil {
		p.logger.Warn("rate limiter failed, admitting request",
			slog.String("route", route),
			slog.Any("error", err))
		p.metrics.RecordLimiterFailure(c.Request.Context(), route)
		return true
	}

	c.Header(headerRateLimitLimit, strconv.Itoa(decision.Limit))
	c.Header(headerRateLimitRemaining, strconv.Itoa(decision.Remaining))
	c.Header(headerRateLimitReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))

	if !decision.Allowed {
		p.reject(c, route, StageRateLimit, &ratelimit.ThrottledError{Decision: decision})
		return false
	}
	return true
}

// reject renders err unless the handler already wrote a response.
func (p *Pipeline) reject(c *gin.Context, route, stage string, err error) {
	kind := httputil.Normalize(err).Kind
	p.metrics.RecordRejection(c.Request.Context(), stage, string(kind))

	if c.Writer.Written() {
		p.logger.Error("handler returned an error after writing the response",
			slog.String("route", route),
			slog.Any("error", err))
		c.Abort()
		return
	}

	p.logger.Debug("request rejected",
		slog.String("route", route),
		slog.String("stage", stage),
		slog.String("kind", string(kind)))
	httputil.HandleErrorGin(c, err, p.logger)
}

// recoverPanic turns a panic anywhere in the pipeline into an InternalError
// response. http.ErrAbortHandler is re-raised for net/http to handle.
func (p *Pipeline) recoverPanic(c *gin.Context, route string) {
	recovered := recover()
	if recovered == nil {
		return
	}
	if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
		panic(recovered)
	}

	p.reject(c, route, StageHandler, fmt.Errorf("panic recovered: %v", recovered))
}
