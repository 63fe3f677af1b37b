package response

import (
	"net/http"

	"causebridge/internal/domain"
)

// StatusOf maps an error kind to its HTTP status.
func StatusOf(k domain.Kind) int {
	switch k {
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindPermission:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
