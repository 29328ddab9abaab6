package gateway

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/validation"
)

// Schema binds the request input and checks it. A failure must match
// apperrors.ErrInvalidInput so it renders as 400.
type Schema interface {
	Bind(c *gin.Context) (any, error)
}

// SchemaFunc adapts a function to Schema.
type SchemaFunc func(c *gin.Context) (any, error)

// Bind calls f(c).
func (f SchemaFunc) Bind(c *gin.Context) (any, error) {
	return f(c)
}

// validatable is a pointer to a request type that validates itself.
type validatable[T any] interface {
	*T
	Validate() error
}

type jsonBody[T any, P validatable[T]] struct{}

// JSONBody binds the JSON body into a *T and runs its Validate method.
// The handler reads it with GetInput[*T].
func JSONBody[T any, P validatable[T]]() Schema {
	return jsonBody[T, P]{}
}

func (jsonBody[T, P]) Bind(c *gin.Context) (any, error) {
	input := new(T)
	if err := c.ShouldBindJSON(input); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed json body")
	}
	if err := P(input).Validate(); err != nil {
		return nil, validation.WrapValidationError(err)
	}
	return input, nil
}

type query[T any, P validatable[T]] struct{}

// Query binds the query string into a *T using `form` tags and runs its
// Validate method.
func Query[T any, P validatable[T]]() Schema {
	return query[T, P]{}
}

func (query[T, P]) Bind(c *gin.Context) (any, error) {
	input := new(T)
	if err := c.ShouldBindQuery(input); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed query string")
	}
	if err := P(input).Validate(); err != nil {
		return nil, validation.WrapValidationError(err)
	}
	return input, nil
}
