package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
)

// RunRevokeAPIKey deactivates an API key. Revoking an already revoked key succeeds.
func RunRevokeAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	ownerID string,
	apiKeyID string,
) error {
	id, err := uuid.Parse(apiKeyID)
	if err != nil {
		return fmt.Errorf("invalid api key id format: %w", err)
	}

	if err := apiKeyUseCase.Revoke(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "API key %s revoked.\n", id.String())
	logger.Info("api key revoked", slog.String("key_id", id.String()), slog.String("owner_id", ownerID))
	return nil
}
