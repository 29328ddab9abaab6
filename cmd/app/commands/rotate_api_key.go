package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/auth/http/dto"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
)

// RunRotateAPIKey revokes an active API key and prints its replacement once.
func RunRotateAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	ownerID string,
	apiKeyID string,
	format string,
) error {
	id, err := uuid.Parse(apiKeyID)
	if err != nil {
		return fmt.Errorf("invalid api key id format: %w", err)
	}

	output, err := apiKeyUseCase.Rotate(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to rotate api key: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, dto.MapCreateOutputToResponse(output)); err != nil {
			return err
		}
	} else {
		writeCreatedKeyText(writer, "API key rotated successfully!", output)
	}

	logger.Info("api key rotated",
		slog.String("old_key_id", id.String()),
		slog.String("key_id", output.ID.String()),
		slog.String("owner_id", ownerID),
	)
	return nil
}
