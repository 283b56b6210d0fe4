package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Codes are loaded from patient_code in
// creation order.
type Patient struct {
	ID               uuid.UUID         `db:"id" json:"id"`
	Name             string            `db:"name" json:"name"`
	Phone            string            `db:"phone" json:"phone"`
	Age              *int              `db:"age" json:"age,omitempty"`
	Gender           *string           `db:"gender" json:"gender,omitempty"`
	Email            *string           `db:"email" json:"email,omitempty"`
	Addresses        []Address         `db:"addresses" json:"addresses,omitempty"`
	BloodGroup       *string           `db:"blood_group" json:"blood_group,omitempty"`
	Allergies        []string          `db:"allergies" json:"allergies,omitempty"`
	EmergencyContact *EmergencyContact `db:"emergency_contact" json:"emergency_contact,omitempty"`
	ExternalHealthID *string           `db:"external_health_id" json:"external_health_id,omitempty"`
	Notes            *string           `db:"notes" json:"notes,omitempty"`
	Codes            []PatientCode     `json:"codes"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// CodeForClinic returns the patient's code issued under clinicID, preferring
// active codes, then the earliest issued.
func (p *Patient) CodeForClinic(clinicID uuid.UUID) (PatientCode, bool) {
	var fallback *PatientCode
	for i := range p.Codes {
		c := &p.Codes[i]
		if c.ClinicID != clinicID {
			continue
		}
		if c.Active {
			return *c, true
		}
		if fallback == nil {
			fallback = c
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return PatientCode{}, false
}

// PatientCode maps to the patient_code table. Code is unique across all
// patients and clinics.
type PatientCode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Code      string    `db:"code" json:"code"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Address struct {
	Use        string `json:"use,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	District   string `json:"district,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// BookingData is the patient part of a booking request.
//
// Name and Phone are required. The remaining fields distinguish absent (nil)
// from present-but-empty, which matters when merging into an existing record:
//
//   - Age, Gender, Email always replace the stored value; nil clears it.
//   - BloodGroup, ExternalHealthID, Notes replace it only when non-empty.
//   - Addresses, Allergies, EmergencyContact replace it whenever non-nil,
//     including an empty list or an empty contact.
type BookingData struct {
	Name             string            `json:"name"`
	Phone            string            `json:"phone"`
	Age              *int              `json:"age,omitempty"`
	Gender           *string           `json:"gender,omitempty"`
	Email            *string           `json:"email,omitempty"`
	Addresses        []Address         `json:"addresses,omitempty"`
	BloodGroup       *string           `json:"blood_group,omitempty"`
	Allergies        []string          `json:"allergies,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`
	ExternalHealthID *string           `json:"external_health_id,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
}

// AppointmentStatusSummary counts a patient's appointments. It is computed
// for each matching attempt and never stored.
type AppointmentStatusSummary struct {
	Total     int `json:"total"`
	Cancelled int `json:"cancelled"`
}

// NonCancelled is the number of appointments still in use.
func (s AppointmentStatusSummary) NonCancelled() int {
	return s.Total - s.Cancelled
}

// Eligible reports whether the record is free to be reused: it has no
// appointments, or every appointment it has was cancelled.
func (s AppointmentStatusSummary) Eligible() bool {
	return s.Total == 0 || s.NonCancelled() == 0
}

// Candidate is an eligible patient together with its appointment summary.
type Candidate struct {
	Patient *Patient
	Summary AppointmentStatusSummary
}

// CandidateScore records a candidate that passed the match threshold.
type CandidateScore struct {
	PatientID  uuid.UUID `json:"patient_id"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// MatchOutcome is the result of FindOrCreatePatient.
type MatchOutcome struct {
	Patient     *Patient    `json:"patient"`
	PatientCode PatientCode `json:"patient_code"`
	IsNew       bool        `json:"is_new"`
	Reused      bool        `json:"reused"`
	Similarity  *float64    `json:"similarity,omitempty"`
	Message     string      `json:"message"`
	// Ambiguous is set when more than one candidate passed the threshold;
	// AlternateCandidates then lists every passing candidate not chosen.
	Ambiguous           bool             `json:"ambiguous"`
	AlternateCandidates []CandidateScore `json:"alternate_candidates,omitempty"`
}
