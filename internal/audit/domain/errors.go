package domain

import (
	"github.com/allisson/cedms/internal/errors"
)

var (
	// ErrInvalidTimeRange indicates a query where From is after To.
	ErrInvalidTimeRange = errors.Wrap(errors.ErrInvalidInput, "invalid time range")

	// ErrCorruptedEntry indicates a stored entry could not be decoded.
	ErrCorruptedEntry = errors.Wrap(errors.ErrIntegrity, "corrupted audit entry")
)
