package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// transitions lists the statuses each status may move to. Cancelled,
// completed and no-show are terminal.
var transitions = map[string]map[string]bool{
	StatusScheduled: {StatusCheckedIn: true, StatusCancelled: true, StatusNoShow: true},
	StatusCheckedIn: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	ClinicID           uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	DoctorID           uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Status             string     `db:"status" json:"status"`
	StartTime          *time.Time `db:"start_time" json:"start_time,omitempty"`
	Reason             *string    `db:"reason" json:"reason,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
