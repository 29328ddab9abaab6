package app

import (
	"fmt"

	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	"github.com/allisson/gatekeeper/internal/auth/identity"
	authRepository "github.com/allisson/gatekeeper/internal/auth/repository"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	"github.com/allisson/gatekeeper/internal/config"
)

// APIKeyRepository returns the API key repository based on database driver.
func (c *Container) APIKeyRepository() (authUseCase.APIKeyRepository, error) {
	var err error
	c.apiKeyRepositoryInit.Do(func() {
		c.apiKeyRepository, err = c.initAPIKeyRepository()
		if err != nil {
			c.initErrors["apiKeyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyRepository"]; exists {
		return nil, storedErr
	}
	return c.apiKeyRepository, nil
}

// APIKeyService returns the service that generates and hashes API keys.
func (c *Container) APIKeyService() authService.APIKeyService {
	c.apiKeyServiceInit.Do(func() {
		c.apiKeyService = authService.NewAPIKeyService(c.config.APIKeyPrefix, c.config.APIKeyPepper)
	})
	return c.apiKeyService
}

// APIKeyUseCase returns the API key use case, wrapped with metrics when enabled.
func (c *Container) APIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	var err error
	c.apiKeyUseCaseInit.Do(func() {
		c.apiKeyUseCase, err = c.initAPIKeyUseCase()
		if err != nil {
			c.initErrors["apiKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.apiKeyUseCase, nil
}

// SessionUseCase returns the session token verifier for the configured identity provider.
func (c *Container) SessionUseCase() (authUseCase.SessionUseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// Authenticator returns the bearer credential authenticator used by the gateway.
func (c *Container) Authenticator() (authUseCase.Authenticator, error) {
	var err error
	c.authenticatorInit.Do(func() {
		c.authenticator, err = c.initAuthenticator()
		if err != nil {
			c.initErrors["authenticator"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authenticator"]; exists {
		return nil, storedErr
	}
	return c.authenticator, nil
}

// APIKeyHandler returns the HTTP handler for API key management.
func (c *Container) APIKeyHandler() (*authHTTP.APIKeyHandler, error) {
	var err error
	c.apiKeyHandlerInit.Do(func() {
		c.apiKeyHandler, err = c.initAPIKeyHandler()
		if err != nil {
			c.initErrors["apiKeyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyHandler"]; exists {
		return nil, storedErr
	}
	return c.apiKeyHandler, nil
}

// MeHandler returns the HTTP handler describing the caller's identity.
func (c *Container) MeHandler() *authHTTP.MeHandler {
	c.meHandlerInit.Do(func() {
		c.meHandler = authHTTP.NewMeHandler()
	})
	return c.meHandler
}

// initAPIKeyRepository creates the API key repository for the configured driver.
func (c *Container) initAPIKeyRepository() (authUseCase.APIKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for api key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLAPIKeyRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLAPIKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initAPIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for api key use case: %w", err)
	}

	apiKeyRepository, err := c.APIKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for api key use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for api key use case: %w", err)
	}

	useCase := authUseCase.NewAPIKeyUseCase(
		txManager,
		apiKeyRepository,
		c.APIKeyService(),
		c.config.AuthLookupTimeout,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		return authUseCase.NewAPIKeyUseCaseWithMetrics(useCase, businessMetrics), nil
	}
	return useCase, nil
}

func (c *Container) initSessionUseCase() (authUseCase.SessionUseCase, error) {
	provider, err := c.initIdentityProvider()
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for session use case: %w", err)
	}

	useCase := authUseCase.NewSessionUseCase(provider, c.config.IdentityProviderTimeout, c.Logger())

	if c.config.MetricsEnabled {
		return authUseCase.NewSessionUseCaseWithMetrics(useCase, businessMetrics), nil
	}
	return useCase, nil
}

// initIdentityProvider selects the session token verifier from IDENTITY_PROVIDER.
func (c *Container) initIdentityProvider() (identity.Provider, error) {
	switch c.config.IdentityProvider {
	case config.IdentityProviderJWT:
		if c.config.IdentityJWTSecret == "" {
			return nil, fmt.Errorf("IDENTITY_JWT_SECRET is required for the jwt identity provider")
		}
		return identity.NewJWTProvider(
			c.config.IdentityJWTSecret,
			c.config.IdentityJWTIssuer,
			c.config.IdentityJWTAudience,
		), nil
	case config.IdentityProviderHTTP:
		if c.config.IdentityProviderURL == "" {
			return nil, fmt.Errorf("IDENTITY_PROVIDER_URL is required for the http identity provider")
		}
		return identity.NewHTTPProvider(
			c.config.IdentityProviderURL,
			c.config.IdentityProviderAPIKey,
			c.config.IdentityProviderTimeout,
		), nil
	default:
		return nil, fmt.Errorf("unsupported identity provider: %s", c.config.IdentityProvider)
	}
}

func (c *Container) initAuthenticator() (authUseCase.Authenticator, error) {
	apiKeyUseCase, err := c.APIKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for authenticator: %w", err)
	}

	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for authenticator: %w", err)
	}

	return authUseCase.NewAuthenticator(c.config.APIKeyPrefix, apiKeyUseCase, sessionUseCase), nil
}

func (c *Container) initAPIKeyHandler() (*authHTTP.APIKeyHandler, error) {
	apiKeyUseCase, err := c.APIKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for api key handler: %w", err)
	}
	return authHTTP.NewAPIKeyHandler(apiKeyUseCase, c.Logger()), nil
}
