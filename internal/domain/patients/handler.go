package patients

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"patient-clinical-history/internal/domain/vitals"
	"patient-clinical-history/internal/middleware"
	"patient-clinical-history/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	h := &handler{svc: svc, log: log, now: time.Now}

	r.Route("/api/patient", func(pr chi.Router) {
		pr.Post("/", h.createPatient)
		pr.Get("/", h.listPatients)

		pr.Get("/{patientID}", h.getPatient)
		pr.Put("/{patientID}", h.updatePatient)
		pr.Delete("/{patientID}", h.deletePatient)

		// Historial de signos vitales (append-only)
		pr.Patch("/{patientID}/history", h.appendHistory)
		pr.Get("/{patientID}/history", h.listHistory)
	})
}

type handler struct {
	svc *Service
	log logger.Logger
	now func() time.Time
}

// flexInt acepta número JSON o string numérico ("98"); el cliente móvil manda ambos.
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*f = flexInt{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%q is not an integer", s)
		}
		*f = flexInt{Value: n, Set: true}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%s is not an integer", string(b))
	}
	*f = flexInt{Value: n, Set: true}
	return nil
}

// vitalsRequest son los cuatro campos de una lectura, compartidos por patient e historial.
type vitalsRequest struct {
	BloodPressure   string  `json:"bloodPressure" example:"120/80"`
	RespiratoryRate flexInt `json:"respiratoryRate" swaggertype:"integer" example:"16"`
	OxygenLevel     flexInt `json:"oxygenLevel" swaggertype:"integer" example:"98"`
	HeartbeatRate   flexInt `json:"heartbeatRate" swaggertype:"integer" example:"72"`
}

// patientRequest es el cuerpo de POST y PUT.
type patientRequest struct {
	Name      string `json:"name"`
	DOB       string `json:"dob" example:"1990-01-15"`             // YYYY-MM-DD o RFC3339
	LastVisit string `json:"lastVisit" example:"2024-10-01T10:30:00Z"` // RFC3339, opcional
	vitalsRequest

	// Solo PUT
	HealthStatus string `json:"healthStatus,omitempty"`
	Version      int64  `json:"version,omitempty"`
}

// historyRequest es el cuerpo de PATCH /history.
type historyRequest struct {
	Date string `json:"date" example:"2024-10-15T10:30:00Z"` // RFC3339, opcional (default: ahora)
	vitalsRequest
}

type historyEntryResponse struct {
	Date            time.Time `json:"date"`
	BloodPressure   string    `json:"bloodPressure"`
	RespiratoryRate int       `json:"respiratoryRate"`
	OxygenLevel     int       `json:"oxygenLevel"`
	HeartbeatRate   int       `json:"heartbeatRate"`
	HealthStatus    string    `json:"healthStatus"`
	RecordedBy      string    `json:"recordedBy,omitempty"`
}

type patientResponse struct {
	ID              string                 `json:"id"`
	LegacyID        string                 `json:"_id"` // el cliente móvil arma las URLs con _id
	Name            string                 `json:"name"`
	DOB             string                 `json:"dob"`
	Age             int                    `json:"age"`
	HealthStatus    string                 `json:"healthStatus"`
	LastVisit       time.Time              `json:"lastVisit"`
	BloodPressure   string                 `json:"bloodPressure"`
	RespiratoryRate int                    `json:"respiratoryRate"`
	OxygenLevel     int                    `json:"oxygenLevel"`
	HeartbeatRate   int                    `json:"heartbeatRate"`
	History         []historyEntryResponse `json:"history"`
	Version         int64                  `json:"version"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// createPatient godoc
// @Summary Crear paciente
// @Description Registra un paciente con sus signos vitales actuales. El healthStatus se calcula en el servidor.
// @Tags patients
// @Accept json
// @Produce json
// @Param payload body patientRequest true "Datos del paciente"
// @Success 201 {object} patientResponse
// @Failure 400 {object} errorResponse "validación"
// @Failure 500 {object} errorResponse
// @Router /api/patient [post]
func (h *handler) createPatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid json: " + err.Error()})
		return
	}

	dob, lastVisit, vin, err := req.parse()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.svc.Create(r.Context(), CreateInput{
		Name:      req.Name,
		DOB:       dob,
		LastVisit: lastVisit,
		Vitals:    vin,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toPatientResponse(p))
}

// listPatients godoc
// @Summary Listar pacientes
// @Tags patients
// @Produce json
// @Success 200 {array} patientResponse
// @Failure 500 {object} errorResponse
// @Router /api/patient [get]
func (h *handler) listPatients(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]patientResponse, 0, len(items))
	for _, p := range items {
		out = append(out, h.toPatientResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// getPatient godoc
// @Summary Obtener paciente
// @Tags patients
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Success 200 {object} patientResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/patient/{patientID} [get]
func (h *handler) getPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPatientResponse(p))
}

// updatePatient godoc
// @Summary Actualizar paciente
// @Description Reemplaza nombre, fecha de nacimiento, última visita y signos vitales. Si no se envía healthStatus se recalcula. Con `version` la escritura es condicional.
// @Tags patients
// @Accept json
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Param payload body patientRequest true "Datos del paciente"
// @Success 200 {object} patientResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "version conflict"
// @Failure 500 {object} errorResponse
// @Router /api/patient/{patientID} [put]
func (h *handler) updatePatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid json: " + err.Error()})
		return
	}

	dob, lastVisit, vin, err := req.parse()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "patientID"), UpdateInput{
		Name:            req.Name,
		DOB:             dob,
		LastVisit:       lastVisit,
		Vitals:          vin,
		HealthStatus:    req.HealthStatus,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPatientResponse(p))
}

// deletePatient godoc
// @Summary Eliminar paciente
// @Tags patients
// @Param patientID path string true "ID del paciente"
// @Success 204
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/patient/{patientID} [delete]
func (h *handler) deletePatient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "patientID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// appendHistory godoc
// @Summary Agregar entrada al historial
// @Description Agrega una lectura de signos vitales al historial. El estado de la entrada se calcula en el servidor; el healthStatus del paciente no cambia salvo que el servicio esté configurado para sincronizarlo.
// @Tags history
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param payload body historyRequest true "Lectura; date en formato RFC3339"
// @Success 200 {object} patientResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/patient/{patientID}/history [patch]
func (h *handler) appendHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid json: " + err.Error()})
		return
	}

	vin, err := req.vitalsRequest.parse()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var date time.Time
	if s := strings.TrimSpace(req.Date); s != "" {
		date, err = time.Parse(time.RFC3339, s)
		if err != nil {
			h.writeError(w, r, &vitals.ValidationError{Field: "date", Rule: "must be RFC3339"})
			return
		}
	}

	// Claims opcionales: si hay usuario, queda registrado en la entrada.
	var recordedBy string
	if claims, ok := middleware.GetClaims(r.Context()); ok {
		recordedBy = claims.UserID
	}

	p, err := h.svc.AppendHistory(r.Context(), chi.URLParam(r, "patientID"), AppendInput{
		Date:       date,
		Vitals:     vin,
		RecordedBy: recordedBy,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPatientResponse(p))
}

// listHistory godoc
// @Summary Listar historial del paciente
// @Tags history
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Success 200 {array} historyEntryResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/patient/{patientID}/history [get]
func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.History(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponse(items))
}

func (req patientRequest) parse() (dob, lastVisit time.Time, vin VitalsInput, err error) {
	if strings.TrimSpace(req.DOB) != "" {
		dob, err = parseDate(req.DOB)
		if err != nil {
			return time.Time{}, time.Time{}, VitalsInput{}, &vitals.ValidationError{Field: "dob", Rule: "must be YYYY-MM-DD or RFC3339"}
		}
	}
	if strings.TrimSpace(req.LastVisit) != "" {
		lastVisit, err = parseDate(req.LastVisit)
		if err != nil {
			return time.Time{}, time.Time{}, VitalsInput{}, &vitals.ValidationError{Field: "lastVisit", Rule: "must be YYYY-MM-DD or RFC3339"}
		}
	}
	vin, err = req.vitalsRequest.parse()
	if err != nil {
		return time.Time{}, time.Time{}, VitalsInput{}, err
	}
	return dob, lastVisit, vin, nil
}

// parse exige los cuatro campos; los rangos los valida el servicio.
func (v vitalsRequest) parse() (VitalsInput, error) {
	if strings.TrimSpace(v.BloodPressure) == "" {
		return VitalsInput{}, &vitals.ValidationError{Field: "bloodPressure", Rule: "is required"}
	}
	if !v.RespiratoryRate.Set {
		return VitalsInput{}, &vitals.ValidationError{Field: "respiratoryRate", Rule: "is required"}
	}
	if !v.OxygenLevel.Set {
		return VitalsInput{}, &vitals.ValidationError{Field: "oxygenLevel", Rule: "is required"}
	}
	if !v.HeartbeatRate.Set {
		return VitalsInput{}, &vitals.ValidationError{Field: "heartbeatRate", Rule: "is required"}
	}
	return VitalsInput{
		BloodPressure:   v.BloodPressure,
		RespiratoryRate: v.RespiratoryRate.Value,
		OxygenLevel:     v.OxygenLevel.Value,
		HeartbeatRate:   v.HeartbeatRate.Value,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// writeError traduce la taxonomía de errores a status HTTP.
// Los 500 devuelven el mensaje original (sin sanitizar).
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *vitals.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Error(), Field: verr.Field})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Patient not found"})
	case errors.Is(err, ErrVersionConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	default:
		h.log.Error("request failed", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"err":    err,
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: err.Error()})
	}
}

func (h *handler) toPatientResponse(p Patient) patientResponse {
	return patientResponse{
		ID:              p.ID,
		LegacyID:        p.ID,
		Name:            p.Name,
		DOB:             p.DOB.Format("2006-01-02"),
		Age:             p.Age(h.now()),
		HealthStatus:    string(p.HealthStatus),
		LastVisit:       p.LastVisit,
		BloodPressure:   p.Vitals.BloodPressure.String(),
		RespiratoryRate: p.Vitals.RespiratoryRate,
		OxygenLevel:     p.Vitals.OxygenLevel,
		HeartbeatRate:   p.Vitals.HeartbeatRate,
		History:         toHistoryResponse(p.History),
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toHistoryResponse(items []HistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, historyEntryResponse{
			Date:            e.Date,
			BloodPressure:   e.Vitals.BloodPressure.String(),
			RespiratoryRate: e.Vitals.RespiratoryRate,
			OxygenLevel:     e.Vitals.OxygenLevel,
			HeartbeatRate:   e.Vitals.HeartbeatRate,
			HealthStatus:    string(e.HealthStatus),
			RecordedBy:      e.RecordedBy,
		})
	}
	return out
}

func decodeJSON(r *http.Request, v any) error {
	// Campos desconocidos se ignoran: el cliente móvil reenvía el documento completo (_id, image...).
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
