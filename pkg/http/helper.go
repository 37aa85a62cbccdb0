package http

import (
	"net/http"
	"strconv"

	apperrors "contactcleaner/pkg/errors"
)

// ExtractLimit reads the "limit" query parameter. A missing value yields fallback;
// values are clamped to [0, upper].
func ExtractLimit(r *http.Request, fallback, upper int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid limit parameter: " + s)
	}

	return min(upper, max(0, v)), nil
}
