package brief

import (
	"errors"
	"net/http"

	"threatfeed/internal/handler/http/respond"
	briefUC "threatfeed/internal/usecase/brief"
)

// writeError maps use case errors to the dashboard's error contract.
// what names the generated artifact in the upstream failure message.
func writeError(w http.ResponseWriter, what string, err error) {
	var appErr *respond.AppError
	switch {
	case errors.Is(err, briefUC.ErrInvalidRequest):
		appErr = respond.NewAppError(http.StatusBadRequest, "Invalid request data", "", err)
	case errors.Is(err, briefUC.ErrGeneratorUnavailable):
		appErr = respond.NewAppError(http.StatusServiceUnavailable, "AI service not configured",
			"Set the provider API key to enable AI features", err)
	case errors.Is(err, briefUC.ErrUpstream):
		appErr = respond.NewAppError(http.StatusServiceUnavailable, "AI service unavailable",
			"Unable to generate "+what+" at this time", err)
	default:
		appErr = respond.NewAppError(http.StatusInternalServerError, "Internal server error",
			"An unexpected error occurred", err)
	}
	respond.HandleError(w, appErr.Code, appErr)
}

// invalidBody reports a request body that could not be decoded.
func invalidBody(w http.ResponseWriter, err error) {
	writeError(w, "", errors.Join(briefUC.ErrInvalidRequest, err))
}
