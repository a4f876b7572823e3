package apihttp

import (
	"context"
	"errors"
	"log"
	"net/http"

	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
)

// RecordLister lists external equipment records of a project.
type RecordLister interface {
	ListEquipment(ctx context.Context, projectID string) ([]mappings.ExternalRecord, error)
}

// RecordsHandler serves GET /api/v1/records by proxying CxAlloy.
type RecordsHandler struct {
	lister           RecordLister
	defaultProjectID string
	logger           *log.Logger
}

// NewRecordsHandler constructs a RecordsHandler.
func NewRecordsHandler(lister RecordLister, defaultProjectID string, logger *log.Logger) (*RecordsHandler, error) {
	if lister == nil {
		return nil, errors.New("records handler: nil lister")
	}
	return &RecordsHandler{lister: lister, defaultProjectID: defaultProjectID, logger: logger}, nil
}

// ServeHTTP lists records for ?project_id= or the configured project.
func (h *RecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		projectID = h.defaultProjectID
	}
	if projectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}
	records, err := h.lister.ListEquipment(r.Context(), projectID)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("cxalloy list failed: project=%s err=%v", projectID, err)
		}
		http.Error(w, "record source unavailable", http.StatusBadGateway)
		return
	}
	if records == nil {
		records = []mappings.ExternalRecord{}
	}
	WriteJSON(w, http.StatusOK, records)
}
