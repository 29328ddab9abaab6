package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// userEndpoint is the provider path that returns the user owning a bearer token.
const userEndpoint = "/auth/v1/user"

// HTTPProvider resolves session tokens by calling the identity provider's user endpoint.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// userResponse is the subset of the provider's user payload the gateway needs.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewHTTPProvider creates an HTTPProvider. The timeout bounds every provider call.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// ResolveSessionToken asks the provider which user owns the token.
// Any non-2xx response is treated as an invalid token.
func (p *HTTPProvider) ResolveSessionToken(ctx context.Context, token string) (*SessionUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+userEndpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build identity provider request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "identity provider request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Wrap(ErrInvalidToken, fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
	}

	var user userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode identity provider response")
	}
	if user.ID == "" {
		return nil, apperrors.Wrap(ErrInvalidToken, "identity provider returned no user id")
	}

	return &SessionUser{
		UserID: user.ID,
		Email:  user.Email,
	}, nil
}
