package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ehr/intake/internal/domain/identity"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateStatus sets the status and, when non-nil, the cancellation
	// reason. It returns ErrAppointmentNotFound for an unknown id.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, cancellationReason *string) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	StatusSummaries(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]identity.AppointmentStatusSummary, error)
}
