package gtheory

import "fmt"

// WarningCode represents structured data-quality warning types. Warnings are
// reported and logged but never abort an analysis.
type WarningCode string

const (
	WarningNegativeVariance WarningCode = "NEGATIVE_VARIANCE" // Method-1 estimate < 0, clipped to zero
	WarningMissingData      WarningCode = "MISSING_DATA"      // rows with missing responses dropped
	WarningDroppedColumn    WarningCode = "DROPPED_COLUMN"    // dataset column not named by any facet
)

// Warning is one data-quality observation attached to an analysis result
type Warning struct {
	Code      WarningCode `json:"code"`
	Component string      `json:"component,omitempty"` // variance component or column involved
	Detail    string      `json:"detail"`
}

func (w Warning) String() string {
	if w.Component != "" {
		return fmt.Sprintf("[%s] %s: %s", w.Code, w.Component, w.Detail)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Detail)
}
