package httphandler

import (
	"net/http"

	// Packages
	metrics "github.com/debtstack-ai/debtstack/pkg/metrics"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /metrics
func MetricsHandler(m *metrics.Metrics) (string, http.HandlerFunc, *openapi.PathItem) {
	handler := m.Handler()
	return "/metrics", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				handler.ServeHTTP(w, r)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}, types.Ptr(openapi.PathItem{
			Get: &openapi.Operation{
				Description: "Prometheus metrics",
			},
		})
}
