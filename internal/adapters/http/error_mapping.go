package httpadapter

import (
	"net/http"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrMalformedSource):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrRoomNotFound),
		domain.IsKind(err, domain.ErrCandidateNotFound),
		domain.IsKind(err, domain.ErrIngestionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
