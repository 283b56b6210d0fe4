package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	// Create inserts the patient and its codes. It assigns IDs and timestamps.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// Update writes the patient's demographic fields. Codes are not touched.
	Update(ctx context.Context, p *Patient) error
	// FindByPhoneInClinic returns patients whose phone equals phone exactly and
	// that hold at least one code issued under clinicID.
	FindByPhoneInClinic(ctx context.Context, phone string, clinicID uuid.UUID) ([]*Patient, error)
}

// AppointmentSummarizer reports appointment counts per patient. Patients with
// no appointments may be omitted from the result.
type AppointmentSummarizer interface {
	StatusSummaries(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]AppointmentStatusSummary, error)
}

// CodeGenerator issues new patient codes.
type CodeGenerator interface {
	Generate(ctx context.Context, clinicID, doctorID uuid.UUID, clinicName, doctorName string) (string, error)
}

// Transactor runs fn inside a single store transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
