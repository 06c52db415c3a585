package patient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pm-health/patient-service/internal/billing"
	"github.com/pm-health/patient-service/internal/telemetry"
)

type Handler struct {
	service ServiceInterface
	metrics *telemetry.Metrics
}

func NewHandler(service ServiceInterface) *Handler {
	return NewHandlerWithMetrics(service, nil)
}

// NewHandlerWithMetrics creates a handler with metrics recording. metrics may
// be nil.
func NewHandlerWithMetrics(service ServiceInterface, metrics *telemetry.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: metrics,
	}
}

type PatientSuccessResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Patient *PatientResponse `json:"patient,omitempty"`
}

type PatientListResponse struct {
	Success  bool              `json:"success"`
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	patient, err := h.service.CreatePatient(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, "creation_failed", err)
		return
	}

	h.recordOperation(r, "create")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(PatientSuccessResponse{
		Success: true,
		Message: "Patient created successfully",
		Patient: patient,
	})
}

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListPatients(r.Context())
	if err != nil {
		h.respondServiceError(w, "fetch_failed", err)
		return
	}

	respondPatientList(w, patients)
}

// SearchPatients serves /patients/search. The free-text q parameter takes
// precedence over the name parameter; with both blank it falls back to
// listing all patients.
func (h *Handler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	term := r.URL.Query().Get("q")

	var patients []PatientResponse
	var err error

	switch {
	case strings.TrimSpace(term) != "":
		patients, err = h.service.SearchPatients(r.Context(), term)
	case strings.TrimSpace(name) != "":
		patients, err = h.service.SearchPatientsByName(r.Context(), name)
	default:
		patients, err = h.service.ListPatients(r.Context())
	}

	if err != nil {
		h.respondServiceError(w, "search_failed", err)
		return
	}

	respondPatientList(w, patients)
}

func (h *Handler) CountPatients(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountPatients(r.Context())
	if err != nil {
		h.respondServiceError(w, "count_failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{
		"count": count,
		"total": count,
	})
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Patient ID is required")
		return
	}
	// No stored record can carry a malformed id.
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusNotFound, "not_found", ErrPatientNotFound.Error())
		return
	}

	patient, err := h.service.GetPatient(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "fetch_failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PatientSuccessResponse{
		Success: true,
		Message: "Patient retrieved successfully",
		Patient: patient,
	})
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Patient ID is required")
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusNotFound, "not_found", ErrPatientNotFound.Error())
		return
	}

	var req PatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	patient, err := h.service.UpdatePatient(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, "update_failed", err)
		return
	}

	h.recordOperation(r, "update")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PatientSuccessResponse{
		Success: true,
		Message: "Patient updated successfully",
		Patient: patient,
	})
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Patient ID is required")
		return
	}

	// A malformed id names no record; deletion stays idempotent.
	if _, err := uuid.Parse(id); err == nil {
		if err := h.service.DeletePatient(r.Context(), id); err != nil {
			h.respondServiceError(w, "deletion_failed", err)
			return
		}
	}

	h.recordOperation(r, "delete")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Patient deleted successfully",
	})
}

func (h *Handler) recordOperation(r *http.Request, operation string) {
	if h.metrics != nil {
		h.metrics.RecordPatientOperation(r.Context(), operation)
	}
}

// respondServiceError maps service errors to status codes. Client-caused
// failures keep their message; anything unclassified is a 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, errorType string, err error) {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrEmailAlreadyExists):
		respondError(w, http.StatusConflict, "email_conflict", err.Error())
	case IsValidationError(err):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, billing.ErrBillingUnavailable):
		respondError(w, http.StatusBadGateway, "billing_unavailable", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, errorType, err.Error())
	}
}

func respondPatientList(w http.ResponseWriter, patients []PatientResponse) {
	if patients == nil {
		patients = []PatientResponse{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PatientListResponse{
		Success:  true,
		Patients: patients,
		Total:    len(patients),
	})
}

func respondError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   errorType,
		"message": message,
	})
}
