package apihttp

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
)

// LoggingMiddleware logs and counts every request.
func LoggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		metrics.IncHTTPRequest(r.Method, strconv.Itoa(resp.status/100)+"xx")
		if logger != nil {
			logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Health serves /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
