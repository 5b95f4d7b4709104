package brief

import (
	"encoding/json"
	"net/http"

	"threatfeed/internal/handler/http/respond"
	briefUC "threatfeed/internal/usecase/brief"
)

// SummarizeHandler generates or returns the cached summary of one article.
type SummarizeHandler struct{ Svc *briefUC.Service }

func (h SummarizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.Configured() {
		writeError(w, "summary", briefUC.ErrGeneratorUnavailable)
		return
	}

	var in ArticleDTO
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		invalidBody(w, err)
		return
	}

	res, err := h.Svc.Summarize(r.Context(), briefUC.SummaryRequest{Article: in.toInput()})
	if err != nil {
		writeError(w, "summary", err)
		return
	}
	respond.JSON(w, http.StatusOK, toGenerationResponse(res))
}
