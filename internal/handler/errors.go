package handler

import (
	"errors"
	"net/http"

	"idealite/internal/domain"
	svc "idealite/internal/domain/services/workspace"
	"idealite/internal/httputil"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrContainerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidParent), errors.Is(err, domain.ErrInvalidDestination):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoLegalDestination), errors.Is(err, domain.ErrCycleDetected):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal errors from clients
func publicMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// handleError writes err as RFC 7807 problem details
func handleError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	httputil.RespondError(w, status, publicMessage(status, err))
}

// respondFailure writes err in the mutation wire shape
func respondFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	httputil.RespondJSON(w, status, svc.MutationResponse{
		Success: false,
		Error:   publicMessage(status, err),
	})
}

func respondSuccess(w http.ResponseWriter, status int, id string) {
	httputil.RespondJSON(w, status, svc.MutationResponse{Success: true, ID: id})
}
