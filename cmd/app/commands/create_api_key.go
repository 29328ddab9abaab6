package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/auth/http/dto"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
)

// RunCreateAPIKey issues an API key for owner and prints it once, in text or
// JSON format. Scopes are comma-separated and must come from the registry.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	ownerID string,
	name string,
	scopes string,
	expiresAt string,
	format string,
) error {
	expires, err := parseExpiresAt(expiresAt)
	if err != nil {
		return err
	}

	input := &authDomain.CreateAPIKeyInput{
		OwnerID:   ownerID,
		Name:      name,
		Scopes:    parseScopes(scopes),
		ExpiresAt: expires,
	}

	output, err := apiKeyUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, dto.MapCreateOutputToResponse(output)); err != nil {
			return err
		}
	} else {
		writeCreatedKeyText(writer, "API key created successfully!", output)
	}

	logger.Info("api key created",
		slog.String("key_id", output.ID.String()),
		slog.String("key_prefix", output.KeyPrefix),
		slog.String("owner_id", ownerID),
	)

	return nil
}

// writeCreatedKeyText prints a newly issued key in human-readable form.
func writeCreatedKeyText(writer io.Writer, title string, output *authDomain.CreateAPIKeyOutput) {
	_, _ = fmt.Fprintf(writer, "\n%s\n", title)
	_, _ = fmt.Fprintf(writer, "ID: %s\n", output.ID.String())
	if output.APIKey != nil {
		_, _ = fmt.Fprintf(writer, "Name: %s\n", output.APIKey.Name)
		_, _ = fmt.Fprintf(writer, "Scopes: %s\n", strings.Join(output.APIKey.Scopes, ", "))
		_, _ = fmt.Fprintf(writer, "Expires: %s\n", formatOptionalTime(output.APIKey.ExpiresAt))
	}
	_, _ = fmt.Fprintf(writer, "Key: %s\n", output.PlainKey)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The key is shown only once. Store it securely.")
}
