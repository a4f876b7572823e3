package reports

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
)

const (
	xlsxPath = "/api/v1/reports/review.xlsx"
	pdfPath  = "/api/v1/reports/review.pdf"
)

// Handler serves review report downloads.
type Handler struct {
	builder *Builder
	logger  *log.Logger
}

// NewHandler constructs a Handler.
func NewHandler(builder *Builder, logger *log.Logger) (*Handler, error) {
	if builder == nil {
		return nil, errors.New("report handler: nil builder")
	}
	return &Handler{builder: builder, logger: logger}, nil
}

// ServeHTTP renders the report selected by the path extension.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var (
		format      string
		contentType string
		render      func(*ReviewReport) ([]byte, error)
	)
	switch r.URL.Path {
	case xlsxPath:
		format, contentType, render = "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", BuildReviewXLSX
	case pdfPath:
		format, contentType, render = "pdf", "application/pdf", BuildReviewPDF
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := time.Now()
	data, err := h.render(r, render)
	metrics.ObserveReportExport(format, err, time.Since(start))
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("review report failed: format=%s err=%v", format, err)
		}
		http.Error(w, "report generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="point-review.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) render(r *http.Request, render func(*ReviewReport) ([]byte, error)) ([]byte, error) {
	report, err := h.builder.Build(r.Context(), r.URL.Query().Get("equipment_type"))
	if err != nil {
		return nil, err
	}
	return render(report)
}
