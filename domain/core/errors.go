package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrInvalidDesign  = errors.New("invalid research design")
	ErrInvalidAlgebra = errors.New("invalid facet algebra")
	ErrFacetNotFound  = errors.New("facet not found in dataset")

	// Numeric errors
	ErrSingularSystem = errors.New("non-invertible design")
	ErrZeroVariance   = errors.New("zero total variance")

	// Sequencing errors
	ErrSequence = errors.New("required prior step not run")
)

// Error constructors with context
func NewSequenceError(operation, required string) error {
	return fmt.Errorf("%w: %s requires %s first", ErrSequence, operation, required)
}

func NewSingularSystemError(detail string) error {
	return fmt.Errorf("%w: %s", ErrSingularSystem, detail)
}

func NewZeroVarianceError(component string) error {
	return fmt.Errorf("%w for component %q", ErrZeroVariance, component)
}

func NewFacetNotFoundError(facet string) error {
	return fmt.Errorf("%w: %q", ErrFacetNotFound, facet)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidDesign) ||
		errors.Is(err, ErrInvalidAlgebra) ||
		errors.Is(err, ErrFacetNotFound)
}

func IsNumericError(err error) bool {
	return errors.Is(err, ErrSingularSystem) ||
		errors.Is(err, ErrZeroVariance)
}

func IsSequenceError(err error) bool {
	return errors.Is(err, ErrSequence)
}
