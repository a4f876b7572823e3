package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersBeforeInit(t *testing.T) {
	if signatureOps != nil {
		t.Skip("metrics already initialized")
	}
	IncSignatureOp("create", nil)
	IncMappingError("conflict")
	ObserveMatch("coverage", nil, time.Millisecond)
}

func TestCounters(t *testing.T) {
	Init(nil, nil)

	before := testutil.ToFloat64(signatureOps.WithLabelValues("delete", ResultError))
	IncSignatureOp("delete", errors.New("boom"))
	if got := testutil.ToFloat64(signatureOps.WithLabelValues("delete", ResultError)); got != before+1 {
		t.Fatalf("expected error counter %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(mappingErrors.WithLabelValues("unknown"))
	IncMappingError("")
	if got := testutil.ToFloat64(mappingErrors.WithLabelValues("unknown")); got != before+1 {
		t.Fatalf("expected unknown reason counted, got %v", got)
	}

	before = testutil.ToFloat64(httpRequests.WithLabelValues("GET", "2xx"))
	IncHTTPRequest("GET", "2xx")
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "2xx")); got != before+1 {
		t.Fatalf("expected http counter incremented, got %v", got)
	}
}
