// Package integration provides end-to-end tests for the gateway against PostgreSQL and MySQL.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/app"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authDTO "github.com/allisson/gatekeeper/internal/auth/http/dto"
	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/httputil"
	"github.com/allisson/gatekeeper/internal/testutil"
)

const (
	testOwnerID     = "owner-integration"
	testSessionUser = "session-user"
	testJWTSecret   = "integration-test-secret"
	testJWTAudience = "authenticated"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	rootKey   string
	dbDriver  string
}

// envelope is the success response body.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// makeRequest performs an HTTP request with an optional bearer token and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body any,
	token string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// sessionToken signs an access token the jwt identity provider accepts.
func sessionToken(t *testing.T, subject string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{testJWTAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err, "failed to sign session token")
	return token
}

// setupIntegrationTest migrates a clean database, issues a root API key and starts the gateway.
func setupIntegrationTest(t *testing.T, dbDriver string, rateLimitRequests int) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		ServerHost:               "localhost",
		ServerPort:               8080,
		AppEnv:                   config.AppEnvProduction,
		DBDriver:                 dbDriver,
		DBConnectionString:       dsn,
		DBMaxOpenConnections:     10,
		DBMaxIdleConnections:     5,
		DBConnMaxLifetime:        time.Hour,
		LogLevel:                 "error",
		APIKeyPrefix:             authDomain.DefaultAPIKeyPrefix,
		AuthLookupTimeout:        2 * time.Second,
		IdentityProvider:         config.IdentityProviderJWT,
		IdentityJWTSecret:        testJWTSecret,
		IdentityJWTAudience:      testJWTAudience,
		IdentityProviderTimeout:  3 * time.Second,
		RateLimitEnabled:         true,
		RateLimitBackend:         config.RateLimitBackendMemory,
		RateLimitAlgorithm:       config.RateLimitAlgorithmFixedWindow,
		RateLimitRequests:        rateLimitRequests,
		RateLimitWindow:          time.Minute,
		RateLimitIdleTTL:         10 * time.Minute,
		RateLimitCleanupInterval: time.Minute,
		RateLimitTimeout:         500 * time.Millisecond,
	}

	container := app.NewContainer(cfg)

	apiKeyUseCase, err := container.APIKeyUseCase()
	require.NoError(t, err, "failed to get api key use case")

	rootKey, err := apiKeyUseCase.Create(context.Background(), &authDomain.CreateAPIKeyInput{
		OwnerID: testOwnerID,
		Name:    "root-integration-key",
		Scopes:  authDomain.Scopes,
	})
	require.NoError(t, err, "failed to create root api key")

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewServer(handler)

	t.Logf("Integration test setup complete for %s (root_key_id=%s)", dbDriver, rootKey.ID)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		rootKey:   rootKey.PlainKey,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

var databaseCases = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databaseCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver, 100)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, "")
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.JSONEq(t, `{"status":"healthy"}`, string(body))
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]any
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ready", response["status"])
			})
		})
	}
}

func TestIntegration_APIKeys_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databaseCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver, 100)
			defer teardownIntegrationTest(t, ctx)

			var limitedKey authDTO.CreateAPIKeyResponse
			var rotatedKey authDTO.CreateAPIKeyResponse

			t.Run("01_MissingCredential", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, "")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.JSONEq(t, `{"error":"Unauthorized","success":false}`, string(body))
			})

			t.Run("02_UnknownAPIKey", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, "zm_doesnotexist")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.JSONEq(t, `{"error":"Unauthorized","success":false}`, string(body))
			})

			t.Run("03_MeWithRootKey", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, ctx.rootKey)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))

				var response envelope[authDTO.MeResponse]
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, testOwnerID, response.Data.ID)
				assert.Equal(t, string(authDomain.AuthModeAPIKey), response.Data.AuthMode)
				assert.ElementsMatch(t, authDomain.Scopes, response.Data.Scopes)
				assert.NotNil(t, response.Data.KeyID)
			})

			t.Run("04_CreateLimitedKey", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/api-keys", map[string]any{
					"name":   "tasks-reader",
					"scopes": []string{authDomain.ScopeTasksRead},
				}, ctx.rootKey)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var response envelope[authDTO.CreateAPIKeyResponse]
				require.NoError(t, json.Unmarshal(body, &response))
				limitedKey = response.Data
				assert.True(t, strings.HasPrefix(limitedKey.Key, authDomain.DefaultAPIKeyPrefix))
				assert.True(t, strings.HasPrefix(limitedKey.Key, limitedKey.KeyPrefix))
				assert.Equal(t, []string{authDomain.ScopeTasksRead}, limitedKey.Scopes)
				assert.True(t, limitedKey.IsActive)
			})

			t.Run("05_CreateRejectsUnknownScope", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/api-keys", map[string]any{
					"name":   "bad-scopes",
					"scopes": []string{"admin.everything"},
				}, ctx.rootKey)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			})

			t.Run("06_LimitedKeyMissingScope", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/api-keys", nil, limitedKey.Key)
				require.Equal(t, http.StatusForbidden, resp.StatusCode)

				var response httputil.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.False(t, response.Success)
				assert.Equal(t, []string{authDomain.ScopeAPIKeysRead}, response.RequiredScopes)
			})

			t.Run("07_LimitedKeyMe", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, limitedKey.Key)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			})

			t.Run("08_ListKeys", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/api-keys?limit=10", nil, ctx.rootKey)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response envelope[[]authDTO.APIKeyResponse]
				require.NoError(t, json.Unmarshal(body, &response))
				require.Len(t, response.Data, 2)
				assert.Equal(t, limitedKey.ID, response.Data[0].ID)
				assert.NotContains(t, string(body), limitedKey.Key)
			})

			t.Run("09_GetKey", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/api-keys/"+limitedKey.ID, nil, ctx.rootKey)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response envelope[authDTO.APIKeyResponse]
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "tasks-reader", response.Data.Name)
			})

			t.Run("10_GetKeyInvalidID", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/api-keys/not-a-uuid", nil, ctx.rootKey)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})

			t.Run("11_GetKeyOtherOwner", func(t *testing.T) {
				resp, _ := ctx.makeRequest(
					t, http.MethodGet, "/v1/api-keys/"+limitedKey.ID, nil, sessionToken(t, testSessionUser),
				)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})

			t.Run("12_RotateKey", func(t *testing.T) {
				resp, body := ctx.makeRequest(
					t, http.MethodPost, "/v1/api-keys/"+limitedKey.ID+"/rotate", nil, ctx.rootKey,
				)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var response envelope[authDTO.CreateAPIKeyResponse]
				require.NoError(t, json.Unmarshal(body, &response))
				rotatedKey = response.Data
				assert.NotEqual(t, limitedKey.ID, rotatedKey.ID)
				assert.NotEqual(t, limitedKey.Key, rotatedKey.Key)
				assert.Equal(t, limitedKey.Name, rotatedKey.Name)
				assert.Equal(t, limitedKey.Scopes, rotatedKey.Scopes)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, limitedKey.Key)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, rotatedKey.Key)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			})

			t.Run("13_RotateRevokedKey", func(t *testing.T) {
				resp, _ := ctx.makeRequest(
					t, http.MethodPost, "/v1/api-keys/"+limitedKey.ID+"/rotate", nil, ctx.rootKey,
				)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})

			t.Run("14_RevokeKey", func(t *testing.T) {
				resp, body := ctx.makeRequest(
					t, http.MethodPost, "/v1/api-keys/"+rotatedKey.ID+"/revoke", nil, ctx.rootKey,
				)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response envelope[authDTO.APIKeyResponse]
				require.NoError(t, json.Unmarshal(body, &response))
				assert.False(t, response.Data.IsActive)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, rotatedKey.Key)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

				resp, _ = ctx.makeRequest(
					t, http.MethodPost, "/v1/api-keys/"+rotatedKey.ID+"/revoke", nil, ctx.rootKey,
				)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			})

			t.Run("15_PrivilegeEscalationRejected", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/api-keys", map[string]any{
					"name":   "key-writer",
					"scopes": []string{authDomain.ScopeAPIKeysWrite},
				}, ctx.rootKey)
				require.Equal(t, http.StatusCreated, resp.StatusCode)

				var writer envelope[authDTO.CreateAPIKeyResponse]
				require.NoError(t, json.Unmarshal(body, &writer))

				resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/api-keys", map[string]any{
					"name":   "escalated",
					"scopes": []string{authDomain.ScopeTasksWrite},
				}, writer.Data.Key)
				require.Equal(t, http.StatusForbidden, resp.StatusCode)

				var response httputil.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, []any{authDomain.ScopeTasksWrite}, response.Details["missing_scopes"])
			})

			t.Run("16_SessionIdentity", func(t *testing.T) {
				token := sessionToken(t, testSessionUser)

				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, token)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var me envelope[authDTO.MeResponse]
				require.NoError(t, json.Unmarshal(body, &me))
				assert.Equal(t, testSessionUser, me.Data.ID)
				assert.Equal(t, string(authDomain.AuthModeSession), me.Data.AuthMode)
				assert.Nil(t, me.Data.KeyID)

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/api-keys", nil, token)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var list envelope[[]authDTO.APIKeyResponse]
				require.NoError(t, json.Unmarshal(body, &list))
				assert.Empty(t, list.Data)
			})

			t.Run("17_InvalidSessionToken", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, "not-a-jwt")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			assert.Equal(t, 4, testutil.CountAPIKeys(t, ctx.db))
		})
	}
}

func TestIntegration_RateLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databaseCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver, 3)
			defer teardownIntegrationTest(t, ctx)

			for i := range 3 {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, ctx.rootKey)
				require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
				assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
			}

			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, ctx.rootKey)
			require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
			assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

			var response httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &response))
			assert.False(t, response.Success)

			// Limits are tracked per identity, so a different caller is still admitted.
			resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/me", nil, sessionToken(t, testSessionUser))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}
