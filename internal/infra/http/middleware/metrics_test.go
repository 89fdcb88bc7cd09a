package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/leads/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/leads/{id}", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/leads/abc", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/leads/{id}", "418"))

	assert.Equal(t, before+1, after)
}

func TestRecordLeadIngested_CountsDuplicates(t *testing.T) {
	dup := testutil.ToFloat64(duplicateLeadsRejected)
	created := testutil.ToFloat64(leadsIngested.WithLabelValues("created"))

	RecordLeadIngested("duplicate")
	RecordLeadIngested("created")

	assert.Equal(t, dup+1, testutil.ToFloat64(duplicateLeadsRejected))
	assert.Equal(t, created+1, testutil.ToFloat64(leadsIngested.WithLabelValues("created")))
}

func TestRecordLeadMove(t *testing.T) {
	before := testutil.ToFloat64(leadMoves.WithLabelValues("moved"))
	RecordLeadMove("moved")
	assert.Equal(t, before+1, testutil.ToFloat64(leadMoves.WithLabelValues("moved")))
}
