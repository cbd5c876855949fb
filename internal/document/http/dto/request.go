// Package dto provides data transfer objects for the document endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/cedms/internal/validation"
)

// UpdateStatusRequest approves or rejects a document.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Validate checks that a status was supplied. Whether it names a valid target
// is decided by the lifecycle.
func (r *UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required, customValidation.NotBlank),
	)
}
