package fetcher

import (
	"errors"

	"complianceanalyzer/internal/apperr"
)

func isTooLarge(err error) bool {
	return errors.Is(err, apperr.ErrResponseTooLarge)
}

// outcomeOf returns the metric label for a classified fetch error.
func outcomeOf(err error) string {
	switch {
	case isTooLarge(err):
		return "too_large"
	case errors.Is(err, apperr.ErrRequestTimeout):
		return "timeout"
	default:
		return "transport"
	}
}
