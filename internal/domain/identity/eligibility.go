package identity

import (
	"context"

	"github.com/google/uuid"
)

// EligibilityFilter narrows the patients sharing a phone number within a
// clinic down to the ones whose record may be reused for a new booking.
type EligibilityFilter struct {
	patients     PatientRepository
	appointments AppointmentSummarizer
}

func NewEligibilityFilter(patients PatientRepository, appointments AppointmentSummarizer) *EligibilityFilter {
	return &EligibilityFilter{patients: patients, appointments: appointments}
}

// FindEligible returns candidates with the exact phone that hold a code in
// clinicID and whose appointments are all cancelled, or who have none.
func (f *EligibilityFilter) FindEligible(ctx context.Context, phone string, clinicID uuid.UUID) ([]Candidate, error) {
	patients, err := f.patients.FindByPhoneInClinic(ctx, phone, clinicID)
	if err != nil {
		return nil, storageErr("find patients by phone", err)
	}
	if len(patients) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
	}
	summaries, err := f.appointments.StatusSummaries(ctx, ids)
	if err != nil {
		return nil, storageErr("summarize appointments", err)
	}

	var eligible []Candidate
	for _, p := range patients {
		summary := summaries[p.ID]
		if !summary.Eligible() {
			continue
		}
		eligible = append(eligible, Candidate{Patient: p, Summary: summary})
	}
	return eligible, nil
}
