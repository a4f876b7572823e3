package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apihttp "github.com/phunnicutt1/synapse-app-sub001/internal/api/http"
	"github.com/phunnicutt1/synapse-app-sub001/internal/audit"
	eqapp "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/application"
	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

const (
	listPath = "/api/v1/equipment"
	prefix   = "/api/v1/equipment/"
)

// Handler serves equipment matching and review endpoints.
type Handler struct {
	service     *eqapp.Service
	registry    *sigapp.Registry
	matcher     *sigapp.Matcher
	mappings    http.Handler
	owns        func(path string) bool
	auditLogger audit.Logger
}

// Option customizes the handler.
type Option func(*Handler)

// WithMappingRoutes delegates the paths accepted by owns to mappings.
func WithMappingRoutes(mappings http.Handler, owns func(path string) bool) Option {
	return func(h *Handler) {
		h.mappings = mappings
		h.owns = owns
	}
}

// WithAuditLogger assigns an audit logger.
func WithAuditLogger(logger audit.Logger) Option {
	return func(h *Handler) {
		h.auditLogger = logger
	}
}

// NewHandler constructs a Handler.
func NewHandler(service *eqapp.Service, registry *sigapp.Registry, matcher *sigapp.Matcher, opts ...Option) (*Handler, error) {
	if service == nil || registry == nil || matcher == nil {
		return nil, errors.New("equipment handler: nil dependency")
	}
	h := &Handler{service: service, registry: registry, matcher: matcher}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP routes equipment requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.mappings != nil && h.owns != nil && h.owns(r.URL.Path) {
		h.mappings.ServeHTTP(w, r)
		return
	}
	if r.URL.Path == listPath {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
		return
	}
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	equipmentID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, equipmentID)
	case len(parts) == 2 && parts[1] == "candidates" && r.Method == http.MethodGet:
		h.handleCandidates(w, r, equipmentID)
	case len(parts) == 2 && parts[1] == "coverage" && r.Method == http.MethodGet:
		h.handleCoverage(w, r, equipmentID)
	case len(parts) == 2 && parts[1] == "tracked-points" && r.Method == http.MethodGet:
		h.handleTrackedPoints(w, r, equipmentID)
	case len(parts) == 2 && parts[1] == "summary" && r.Method == http.MethodGet:
		h.handleSummary(w, r, equipmentID)
	case len(parts) == 4 && parts[1] == "points" && parts[3] == "normalization" && r.Method == http.MethodPost:
		h.handleNormalization(w, r, equipmentID, parts[2])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByType(r.Context(), r.URL.Query().Get("equipment_type"))
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	if list == nil {
		list = []equipment.Equipment{}
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, item)
}

type candidateView struct {
	sigapp.Candidate
	Ratio float64 `json:"ratio"`
}

func (h *Handler) handleCandidates(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	candidates, err := h.matcher.CandidateSignatures(r.Context(), *item)
	metrics.ObserveMatch("candidates", err, time.Since(start))
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	views := make([]candidateView, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, candidateView{Candidate: c, Ratio: c.Coverage.Ratio()})
	}
	apihttp.WriteJSON(w, http.StatusOK, views)
}

type coverageView struct {
	sigapp.Coverage
	Ratio     float64 `json:"ratio"`
	FullMatch bool    `json:"full_match"`
}

func (h *Handler) handleCoverage(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	item, sig, err := h.loadPair(r, id)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	cov := h.matcher.Coverage(*item, *sig)
	metrics.ObserveMatch("coverage", nil, time.Since(start))
	apihttp.WriteJSON(w, http.StatusOK, coverageView{Coverage: cov, Ratio: cov.Ratio(), FullMatch: sigapp.IsFullMatch(*item, *sig)})
}

func (h *Handler) handleTrackedPoints(w http.ResponseWriter, r *http.Request, id string) {
	item, sig, err := h.loadPair(r, id)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	tracked := sigapp.ApplyTemplate(*item, *sig)
	if tracked == nil {
		tracked = []points.Point{}
	}
	apihttp.WriteJSON(w, http.StatusOK, tracked)
}

type summaryView struct {
	EquipmentID     string                  `json:"equipment_id"`
	ReviewHighMin   int                     `json:"review_high_min"`
	Filter          points.PointFilter      `json:"filter"`
	Summary         points.Summary          `json:"summary"`
	Classifications []points.Classification `json:"classifications"`
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request, id string) {
	query := r.URL.Query()
	filter, err := points.ParsePointFilter(query.Get("tier"), query.Get("review"))
	if err != nil {
		apihttp.WriteError(w, fmt.Errorf("%w: %v", equipment.ErrValidation, err))
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, summaryView{
		EquipmentID:     item.ID,
		ReviewHighMin:   h.service.ReviewHighMin(),
		Filter:          filter,
		Summary:         h.service.Summarize(*item),
		Classifications: h.service.Classify(*item, filter),
	})
}

func (h *Handler) handleNormalization(w http.ResponseWriter, r *http.Request, equipmentID, pointID string) {
	var req struct {
		NormalizedName string `json:"normalized_name"`
		Confidence     *int   `json:"confidence"`
	}
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.service.CorrectNormalization(r.Context(), equipment.NormalizationCorrection{
		EquipmentID:    equipmentID,
		PointID:        pointID,
		NormalizedName: req.NormalizedName,
		Confidence:     req.Confidence,
	})
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, points.Classify(*p, h.service.ReviewHighMin()))
	if h.auditLogger != nil {
		_ = h.auditLogger.Log(r.Context(), audit.FromRequest(r, "point.normalization.correct", "point", equipmentID+"/"+pointID, req))
	}
}

func (h *Handler) loadPair(r *http.Request, id string) (*equipment.Equipment, *signatures.Signature, error) {
	signatureID := r.URL.Query().Get("signature_id")
	if signatureID == "" {
		return nil, nil, fmt.Errorf("%w: signature_id is required", signatures.ErrValidation)
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	sig, err := h.registry.Get(r.Context(), signatureID)
	if err != nil {
		return nil, nil, err
	}
	return item, sig, nil
}
