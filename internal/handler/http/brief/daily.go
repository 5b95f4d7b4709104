package brief

import (
	"encoding/json"
	"net/http"

	"threatfeed/internal/handler/http/respond"
	briefUC "threatfeed/internal/usecase/brief"
)

// DailyBriefHandler generates or returns the cached brief over a set of articles.
type DailyBriefHandler struct{ Svc *briefUC.Service }

func (h DailyBriefHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.Configured() {
		writeError(w, "daily brief", briefUC.ErrGeneratorUnavailable)
		return
	}

	var in DailyBriefRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		invalidBody(w, err)
		return
	}

	res, err := h.Svc.DailyBrief(r.Context(), in.toInput())
	if err != nil {
		writeError(w, "daily brief", err)
		return
	}
	respond.JSON(w, http.StatusOK, toGenerationResponse(res))
}
