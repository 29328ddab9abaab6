package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/allisson/gatekeeper/internal/auth/http/dto"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
)

// RunListAPIKeys prints the owner's API keys, newest first. Hashes are never printed.
func RunListAPIKeys(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	writer io.Writer,
	ownerID string,
	offset int,
	limit int,
	format string,
) error {
	apiKeys, err := apiKeyUseCase.List(ctx, ownerID, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{"data": dto.MapAPIKeysToResponse(apiKeys)})
	}

	if len(apiKeys) == 0 {
		_, _ = fmt.Fprintln(writer, "No API keys found.")
		return nil
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tACTIVE\tSCOPES\tEXPIRES\tLAST USED")
	for _, apiKey := range apiKeys {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
			apiKey.ID.String(),
			apiKey.Name,
			apiKey.KeyPrefix,
			apiKey.IsActive,
			strings.Join(apiKey.Scopes, ","),
			formatOptionalTime(apiKey.ExpiresAt),
			formatOptionalTime(apiKey.LastUsedAt),
		)
	}
	return tw.Flush()
}
