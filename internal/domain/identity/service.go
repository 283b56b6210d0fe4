package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/intake/internal/platform/events"
)

const eventSource = "intake-server"

type Service struct {
	patients         PatientRepository
	filter           *EligibilityFilter
	codes            CodeGenerator
	tx               Transactor
	thresholdPercent int
	publisher        events.Publisher
	logger           zerolog.Logger
}

func NewService(
	patients PatientRepository,
	appointments AppointmentSummarizer,
	codes CodeGenerator,
	tx Transactor,
	thresholdPercent int,
	logger zerolog.Logger,
) *Service {
	return &Service{
		patients:         patients,
		filter:           NewEligibilityFilter(patients, appointments),
		codes:            codes,
		tx:               tx,
		thresholdPercent: thresholdPercent,
		publisher:        events.NopPublisher{},
		logger:           logger.With().Str("component", "identity").Logger(),
	}
}

// SetPublisher routes match outcomes to p after each committed decision.
func (s *Service) SetPublisher(p events.Publisher) {
	s.publisher = p
}

// FindOrCreatePatient resolves a booking to an existing eligible patient in
// clinicID or creates a new one with a freshly generated code. The whole
// decision runs in one transaction.
func (s *Service) FindOrCreatePatient(ctx context.Context, b BookingData, clinicID, doctorID uuid.UUID, clinicName, doctorName string) (*MatchOutcome, error) {
	var out *MatchOutcome
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.Resolve(ctx, b, clinicID, doctorID, clinicName, doctorName)
		return err
	})
	if err != nil {
		return nil, TxError(err)
	}
	s.Announce(ctx, out)
	return out, nil
}

// Resolve is FindOrCreatePatient without its transaction or its post-commit
// log and event. ctx must carry the caller's transaction; the caller calls
// Announce once that transaction commits.
func (s *Service) Resolve(ctx context.Context, b BookingData, clinicID, doctorID uuid.UUID, clinicName, doctorName string) (*MatchOutcome, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Phone = strings.TrimSpace(b.Phone)
	if b.Name == "" {
		return nil, &ValidationError{Field: "name"}
	}
	if b.Phone == "" {
		return nil, &ValidationError{Field: "phone"}
	}

	candidates, err := s.filter.FindEligible(ctx, b.Phone, clinicID)
	if err != nil {
		return nil, err
	}

	if m := ResolveMatch(candidates, b.Name, clinicID, s.thresholdPercent); m != nil {
		p := MergeBooking(m.Patient, b)
		if err := s.patients.Update(ctx, p); err != nil {
			return nil, storageErr("update patient", err)
		}
		sim := m.Similarity
		out := &MatchOutcome{
			Patient:             p,
			PatientCode:         m.Code,
			IsNew:               false,
			Reused:              true,
			Similarity:          &sim,
			Message:             "Existing patient record reused",
			Ambiguous:           m.Ambiguous(),
			AlternateCandidates: m.Alternates,
		}
		if out.Ambiguous {
			out.Message = fmt.Sprintf("Existing patient record reused; %d other candidate(s) also matched", len(m.Alternates))
		}
		return out, nil
	}

	code, err := s.codes.Generate(ctx, clinicID, doctorID, clinicName, doctorName)
	if err != nil {
		return nil, storageErr("generate patient code", err)
	}

	p := newPatient(b)
	p.Codes = []PatientCode{{
		ClinicID: clinicID,
		DoctorID: doctorID,
		Code:     code,
		Active:   true,
	}}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, storageErr("create patient", err)
	}

	return &MatchOutcome{
		Patient:     p,
		PatientCode: p.Codes[0],
		IsNew:       true,
		Reused:      false,
		Message:     "New patient record created",
	}, nil
}

// Announce logs a committed outcome and publishes it. Publishing is best
// effort: a failure is logged and otherwise ignored.
func (s *Service) Announce(ctx context.Context, out *MatchOutcome) {
	if out == nil || out.Patient == nil {
		return
	}

	evt := s.logger.Info().
		Str("patient_id", out.Patient.ID.String()).
		Str("patient_code", out.PatientCode.Code).
		Str("clinic_id", out.PatientCode.ClinicID.String()).
		Bool("is_new", out.IsNew).
		Bool("reused", out.Reused).
		Bool("ambiguous", out.Ambiguous)
	if out.Similarity != nil {
		evt = evt.Float64("similarity", *out.Similarity)
	}
	if out.Ambiguous {
		ids := make([]string, len(out.AlternateCandidates))
		for i, a := range out.AlternateCandidates {
			ids[i] = a.PatientID.String()
		}
		evt = evt.Strs("alternates", ids)
	}
	evt.Msg("patient resolved")

	eventType := events.TypePatientCreated
	if out.Reused {
		eventType = events.TypePatientReused
	}
	data := map[string]interface{}{
		"patient_id":   out.Patient.ID.String(),
		"patient_code": out.PatientCode.Code,
		"clinic_id":    out.PatientCode.ClinicID.String(),
		"doctor_id":    out.PatientCode.DoctorID.String(),
		"is_new":       out.IsNew,
		"reused":       out.Reused,
		"ambiguous":    out.Ambiguous,
	}
	if out.Similarity != nil {
		data["similarity"] = *out.Similarity
	}
	if len(out.AlternateCandidates) > 0 {
		data["alternate_candidates"] = out.AlternateCandidates
	}

	e := events.NewEvent(eventType, eventSource, out.Patient.ID.String(), data)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).
			Str("patient_id", out.Patient.ID.String()).
			Str("event_type", eventType).
			Msg("outcome event not published")
	}
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, storageErr("get patient", err)
	}
	return p, nil
}

func newPatient(b BookingData) *Patient {
	return MergeBooking(&Patient{Phone: b.Phone}, b)
}
