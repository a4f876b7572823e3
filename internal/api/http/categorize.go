package apihttp

import (
	"net/http"

	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

// CategorizeHandler serves POST /api/v1/points/categorize.
type CategorizeHandler struct {
	reviewHighMin int
}

// NewCategorizeHandler constructs a CategorizeHandler.
func NewCategorizeHandler(reviewHighMin int) *CategorizeHandler {
	if reviewHighMin <= 0 {
		reviewHighMin = points.ReviewHighMin
	}
	return &CategorizeHandler{reviewHighMin: reviewHighMin}
}

type categorizeRequest struct {
	Points []points.Point `json:"points"`
}

type categorizeResponse struct {
	Classifications []points.Classification `json:"classifications"`
	Summary         points.Summary          `json:"summary"`
}

// ServeHTTP classifies a batch of points.
func (h *CategorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req categorizeRequest
	if err := DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, p := range req.Points {
		if err := p.Validate(); err != nil {
			http.Error(w, "point "+p.ID+": "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	metrics.ObserveCategorizeBatch(len(req.Points))
	WriteJSON(w, http.StatusOK, categorizeResponse{
		Classifications: points.ClassifyAll(req.Points, h.reviewHighMin),
		Summary:         points.Summarize(req.Points, h.reviewHighMin),
	})
}
