package http

import (
	"errors"
	"net/http"
	"strings"

	apihttp "github.com/phunnicutt1/synapse-app-sub001/internal/api/http"
	"github.com/phunnicutt1/synapse-app-sub001/internal/audit"
	"github.com/phunnicutt1/synapse-app-sub001/internal/auth"
	mapapp "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/application"
)

const (
	equipmentPrefix = "/api/v1/equipment/"
	recordsPrefix   = "/api/v1/records/"
)

// Handler serves signature assignment and record mapping endpoints.
type Handler struct {
	manager     *mapapp.Manager
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(manager *mapapp.Manager, auditLogger audit.Logger) (*Handler, error) {
	if manager == nil {
		return nil, errors.New("mapping handler: nil manager")
	}
	return &Handler{manager: manager, auditLogger: auditLogger}, nil
}

// Owns reports whether the path is an equipment subresource served here.
func Owns(path string) bool {
	if !strings.HasPrefix(path, equipmentPrefix) {
		return false
	}
	parts := strings.Split(strings.TrimPrefix(path, equipmentPrefix), "/")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	switch parts[1] {
	case "signature", "record", "mapping":
		return true
	}
	return false
}

// ServeHTTP routes mapping requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, recordsPrefix):
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, recordsPrefix), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "mapping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.serveRecord(w, r, parts[0])
	case Owns(r.URL.Path):
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, equipmentPrefix), "/")
		h.serveEquipment(w, r, parts[0], parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) serveEquipment(w http.ResponseWriter, r *http.Request, equipmentID, resource string) {
	switch {
	case resource == "signature" && r.Method == http.MethodGet:
		state, err := h.manager.SignatureStateFor(r.Context(), equipmentID)
		respond(w, http.StatusOK, state, err)
	case resource == "signature" && r.Method == http.MethodPut:
		h.handleAssignSignature(w, r, equipmentID)
	case resource == "signature" && r.Method == http.MethodDelete:
		state, err := h.manager.UnassignSignature(r.Context(), equipmentID, auth.ActorFromContext(r.Context()))
		respond(w, http.StatusOK, state, err)
		if err == nil {
			h.logAudit(r, "mapping.signature.unassign", equipmentID, nil)
		}
	case resource == "record" && r.Method == http.MethodPut:
		h.handleAssignRecord(w, r, equipmentID)
	case resource == "record" && r.Method == http.MethodDelete:
		if err := h.manager.UnassignRecord(r.Context(), equipmentID, auth.ActorFromContext(r.Context())); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "mapping.record.unassign", equipmentID, nil)
	case resource == "mapping" && r.Method == http.MethodGet:
		view, err := h.manager.MappingForEquipment(r.Context(), equipmentID)
		respond(w, http.StatusOK, view, err)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveRecord(w http.ResponseWriter, r *http.Request, recordID string) {
	switch r.Method {
	case http.MethodGet:
		view, err := h.manager.MappingForRecord(r.Context(), recordID)
		respond(w, http.StatusOK, view, err)
	case http.MethodDelete:
		if err := h.manager.UnassignRecordByID(r.Context(), recordID, auth.ActorFromContext(r.Context())); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "mapping.record.unassign", recordID, nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAssignSignature(w http.ResponseWriter, r *http.Request, equipmentID string) {
	var req struct {
		SignatureID string `json:"signature_id"`
	}
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := h.manager.AssignSignature(r.Context(), equipmentID, req.SignatureID, auth.ActorFromContext(r.Context()))
	respond(w, http.StatusOK, state, err)
	if err == nil {
		h.logAudit(r, "mapping.signature.assign", equipmentID, map[string]any{"signature_id": req.SignatureID})
	}
}

func (h *Handler) handleAssignRecord(w http.ResponseWriter, r *http.Request, equipmentID string) {
	var req struct {
		RecordID string `json:"record_id"`
	}
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, err := h.manager.AssignRecord(r.Context(), equipmentID, req.RecordID, auth.ActorFromContext(r.Context()))
	respond(w, http.StatusOK, view, err)
	if err == nil {
		h.logAudit(r, "mapping.record.assign", equipmentID, map[string]any{"record_id": req.RecordID})
	}
}

func respond(w http.ResponseWriter, status int, value any, err error) {
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, status, value)
}

func (h *Handler) logAudit(r *http.Request, action, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.FromRequest(r, action, "mapping", resourceID, meta))
}
