package commands

import (
	"fmt"
	"io"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

// RunListScopes prints the scope registry in display order.
func RunListScopes(writer io.Writer, format string) error {
	if format == "json" {
		return writeJSON(writer, map[string][]string{"scopes": authDomain.Scopes})
	}

	for _, scope := range authDomain.Scopes {
		_, _ = fmt.Fprintln(writer, scope)
	}
	return nil
}
