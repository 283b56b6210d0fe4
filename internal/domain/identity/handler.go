package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/intake/internal/domain/patientcode"
	"github.com/ehr/intake/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, registrar, physician, nurse
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleRegistrar, auth.RolePhysician, auth.RoleNurse))
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/patient-codes/:code/valid", h.ValidateCode)

	// Write endpoints – admin, registrar
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleRegistrar))
	writeGroup.POST("/patients/resolve", h.ResolvePatient)
}

// ResolveRequest is the body of POST /patients/resolve.
type ResolveRequest struct {
	ClinicID   uuid.UUID   `json:"clinic_id"`
	DoctorID   uuid.UUID   `json:"doctor_id"`
	ClinicName string      `json:"clinic_name"`
	DoctorName string      `json:"doctor_name"`
	Patient    BookingData `json:"patient"`
}

// Validate checks the fields FindOrCreatePatient does not.
func (r *ResolveRequest) Validate() error {
	if r.ClinicID == uuid.Nil {
		return &ValidationError{Field: "clinic_id"}
	}
	if r.DoctorID == uuid.Nil {
		return &ValidationError{Field: "doctor_id"}
	}
	return nil
}

func (h *Handler) ResolvePatient(c echo.Context) error {
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return HTTPError(err)
	}

	out, err := h.svc.FindOrCreatePatient(c.Request().Context(), req.Patient,
		req.ClinicID, req.DoctorID, req.ClinicName, req.DoctorName)
	if err != nil {
		return HTTPError(err)
	}

	status := http.StatusOK
	if out.IsNew {
		status = http.StatusCreated
	}
	return c.JSON(status, out)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ValidateCode(c echo.Context) error {
	code := c.Param("code")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":  code,
		"valid": patientcode.Validate(code),
	})
}

// HTTPError maps identity errors onto HTTP status codes. Storage failures
// are reported without their driver detail.
func HTTPError(err error) *echo.HTTPError {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
