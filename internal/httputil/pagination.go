package httputil

import (
	validation "github.com/jellydator/validation"
)

// MaxPageLimit caps the number of items a list endpoint returns.
const MaxPageLimit = 100

// Pagination holds the offset and limit query parameters of a list endpoint.
// Missing parameters default to offset 0 and limit 50. Embed it in a query
// request type bound with gateway.Query.
type Pagination struct {
	Offset int `json:"offset" form:"offset,default=0"`
	Limit  int `json:"limit" form:"limit,default=50"`
}

// Validate checks that offset is non-negative and limit is within 1..MaxPageLimit.
func (p *Pagination) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Offset,
			validation.Min(0).Error("must be a non-negative integer"),
		),
		// Min skips zero, so an explicit limit=0 is caught by Required.
		validation.Field(&p.Limit,
			validation.Required.Error("must be between 1 and 100"),
			validation.Min(1).Error("must be between 1 and 100"),
			validation.Max(MaxPageLimit).Error("must be between 1 and 100"),
		),
	)
}
