package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/pm-health/patient-service/internal/auth"
	"github.com/pm-health/patient-service/internal/billing"
	"github.com/pm-health/patient-service/internal/messaging"
	"github.com/pm-health/patient-service/internal/patient"
	"github.com/pm-health/patient-service/internal/telemetry"
)

// SetupRouter initializes all routes for the application. verifier may be nil
// when authentication is handled entirely upstream; metrics may be nil.
func SetupRouter(db *sql.DB, billingClient billing.ClientInterface, publisher messaging.PublisherInterface, verifier *auth.Verifier, metrics *telemetry.Metrics) *mux.Router {
	patientRepo := patient.NewRepository(db)
	patientService := patient.NewServiceWithMetrics(patientRepo, billingClient, publisher, metrics)
	patientHandler := patient.NewHandlerWithMetrics(patientService, metrics)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("patient-service"))
	if metrics != nil {
		r.Use(metricsMiddleware(metrics))
	}

	// Public health and info endpoints
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"UP","service":"patient-service"}`))
	}
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/actuator/health", healthHandler).Methods("GET")
	r.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"patient-service","description":"Patient lifecycle management","version":"1.0.0"}`))
	}).Methods("GET")

	protect := func(h http.HandlerFunc) http.Handler {
		if verifier == nil {
			return h
		}
		var recorder auth.MetricsRecorder
		if metrics != nil {
			recorder = metrics
		}
		return auth.MiddlewareWithMetrics(verifier, recorder)(h)
	}

	// Fixed paths must be registered before the {id} routes.
	r.Handle("/patients/search", protect(patientHandler.SearchPatients)).Methods("GET")
	r.Handle("/patients/count", protect(patientHandler.CountPatients)).Methods("GET")

	r.Handle("/patients", protect(patientHandler.CreatePatient)).Methods("POST")
	r.Handle("/patients", protect(patientHandler.ListPatients)).Methods("GET")
	r.Handle("/patients/{id}", protect(patientHandler.GetPatient)).Methods("GET")
	r.Handle("/patients/{id}", protect(patientHandler.UpdatePatient)).Methods("PUT")
	r.Handle("/patients/{id}", protect(patientHandler.DeletePatient)).Methods("DELETE")

	return r
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(metrics *telemetry.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			metrics.RecordHTTPRequest(r.Context(), r.Method, route, rec.status, float64(time.Since(start).Milliseconds()))
		})
	}
}
