package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apihttp "github.com/phunnicutt1/synapse-app-sub001/internal/api/http"
	"github.com/phunnicutt1/synapse-app-sub001/internal/audit"
	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
	"github.com/phunnicutt1/synapse-app-sub001/internal/signatures/library"
)

const (
	basePath    = "/api/v1/signatures"
	libraryPath = "/api/v1/library/import"
	maxLibrary  = 1 << 20
)

// EquipmentGetter loads equipment for promotion.
type EquipmentGetter interface {
	Get(ctx context.Context, id string) (*equipment.Equipment, error)
}

// Handler serves signature endpoints.
type Handler struct {
	registry    *sigapp.Registry
	analytics   signatures.AnalyticsReader
	equipment   EquipmentGetter
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(registry *sigapp.Registry, analytics signatures.AnalyticsReader, equipmentGetter EquipmentGetter, auditLogger audit.Logger) (*Handler, error) {
	if registry == nil {
		return nil, errors.New("signature handler: nil registry")
	}
	return &Handler{registry: registry, analytics: analytics, equipment: equipmentGetter, auditLogger: auditLogger}, nil
}

// ServeHTTP routes signature requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == libraryPath {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleImport(w, r)
		return
	}
	if r.URL.Path == basePath {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if !strings.HasPrefix(r.URL.Path, basePath+"/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, basePath+"/"), "/")
	if parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if len(parts) == 1 && parts[0] == "promote" && r.Method == http.MethodPost {
		h.handlePromote(w, r)
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPatch:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if len(parts) == 2 && parts[1] == "analytics" && r.Method == http.MethodGet {
		h.handleAnalytics(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		list []signatures.Signature
		err  error
	)
	if equipmentType, ok := r.URL.Query()["equipment_type"]; ok {
		list, err = h.registry.ListByEquipmentType(r.Context(), equipmentType[0])
	} else {
		list, err = h.registry.List(r.Context())
	}
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	if list == nil {
		list = []signatures.Signature{}
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		sigapp.Draft
		MatchingEquipmentIDs []string `json:"matching_equipment_ids"`
	}
	if err := apihttp.DecodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body.MatchingEquipmentIDs) > 0 {
		apihttp.WriteError(w, fmt.Errorf("%w: matching_equipment_ids is set through /api/v1/equipment/{id}/signature", signatures.ErrValidation))
		return
	}
	sig, err := h.registry.Create(r.Context(), body.Draft)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, sig)
	h.logAudit(r, "signature.create", sig.ID, map[string]any{"name": sig.Name, "equipment_type": sig.EquipmentType})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	sig, err := h.registry.Get(r.Context(), id)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, sig)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var patch sigapp.Patch
	if err := apihttp.DecodeJSON(r, &patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sig, err := h.registry.Update(r.Context(), id, patch)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, sig)
	h.logAudit(r, "signature.update", id, patch)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.registry.Delete(r.Context(), id); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "signature.delete", id, nil)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.registry.Get(r.Context(), id); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	result := &signatures.Analytics{SignatureID: id}
	if h.analytics != nil {
		found, err := h.analytics.Get(r.Context(), id)
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		if found != nil {
			result = found
		}
	}
	apihttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePromote(w http.ResponseWriter, r *http.Request) {
	if h.equipment == nil {
		http.Error(w, "equipment source not configured", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		EquipmentID string   `json:"equipment_id"`
		Name        string   `json:"name"`
		PointKeys   []string `json:"point_keys"`
	}
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.EquipmentID == "" {
		http.Error(w, "equipment_id is required", http.StatusBadRequest)
		return
	}
	keys := make([]points.PointKey, 0, len(req.PointKeys))
	for _, raw := range req.PointKeys {
		key := points.PointKey(raw)
		if _, _, _, err := key.Decode(); err != nil {
			apihttp.WriteError(w, fmt.Errorf("%w: %q", err, raw))
			return
		}
		keys = append(keys, key)
	}
	item, err := h.equipment.Get(r.Context(), req.EquipmentID)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	if item == nil {
		apihttp.WriteError(w, fmt.Errorf("%w: %s", equipment.ErrNotFound, req.EquipmentID))
		return
	}
	sig, err := h.registry.PromoteEquipment(r.Context(), *item, req.Name, keys)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, sig)
	h.logAudit(r, "signature.promote", sig.ID, map[string]any{"equipment_id": req.EquipmentID})
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	drafts, err := library.Parse(io.LimitReader(r.Body, maxLibrary))
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	result, err := library.Import(r.Context(), h.registry, drafts)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, result)
	h.logAudit(r, "signature.library.import", "", result)
}

func (h *Handler) logAudit(r *http.Request, action, signatureID string, meta any) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.FromRequest(r, action, "signature", signatureID, meta))
}
