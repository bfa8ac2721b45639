package handler

import (
	"github.com/smartretail/storefront/internal/validation"
)

// echoValidator adapts the shared validation rules so Echo can call
// c.Validate(req).
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (echoValidator) Validate(i any) error {
	return validation.Struct(i)
}
