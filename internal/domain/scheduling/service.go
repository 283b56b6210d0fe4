package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/intake/internal/domain/identity"
)

// ErrNotCancellable is returned when cancelling an appointment that already
// reached a terminal status other than cancelled.
var ErrNotCancellable = errors.New("appointment cannot be cancelled")

// ErrInvalidTransition is returned for a status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid appointment status transition")

// PatientResolver is the part of identity.Service that booking depends on.
type PatientResolver interface {
	Resolve(ctx context.Context, b identity.BookingData, clinicID, doctorID uuid.UUID, clinicName, doctorName string) (*identity.MatchOutcome, error)
	Announce(ctx context.Context, out *identity.MatchOutcome)
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type Service struct {
	appointments AppointmentRepository
	patients     PatientResolver
	tx           identity.Transactor
	logger       zerolog.Logger
}

func NewService(appts AppointmentRepository, patients PatientResolver, tx identity.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appts,
		patients:     patients,
		tx:           tx,
		logger:       logger.With().Str("component", "scheduling").Logger(),
	}
}

// BookingRequest is a visit request for a patient identified only by the
// details in Patient.
type BookingRequest struct {
	ClinicID   uuid.UUID            `json:"clinic_id"`
	DoctorID   uuid.UUID            `json:"doctor_id"`
	ClinicName string               `json:"clinic_name"`
	DoctorName string               `json:"doctor_name"`
	StartTime  *time.Time           `json:"start_time,omitempty"`
	Reason     *string              `json:"reason,omitempty"`
	Patient    identity.BookingData `json:"patient"`
}

func (r *BookingRequest) Validate() error {
	if r.ClinicID == uuid.Nil {
		return &identity.ValidationError{Field: "clinic_id"}
	}
	if r.DoctorID == uuid.Nil {
		return &identity.ValidationError{Field: "doctor_id"}
	}
	return nil
}

type BookingResult struct {
	Appointment *Appointment           `json:"appointment"`
	Outcome     *identity.MatchOutcome `json:"outcome"`
}

// Book resolves the patient and creates a scheduled appointment for them in
// one transaction.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var res BookingResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		out, err := s.patients.Resolve(ctx, req.Patient, req.ClinicID, req.DoctorID, req.ClinicName, req.DoctorName)
		if err != nil {
			return err
		}

		a := &Appointment{
			PatientID: out.Patient.ID,
			ClinicID:  req.ClinicID,
			DoctorID:  req.DoctorID,
			Status:    StatusScheduled,
			StartTime: req.StartTime,
			Reason:    req.Reason,
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			return &identity.StorageError{Op: "create appointment", Err: err}
		}

		res = BookingResult{Appointment: a, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, identity.TxError(err)
	}

	s.patients.Announce(ctx, res.Outcome)
	s.logger.Info().
		Str("appointment_id", res.Appointment.ID.String()).
		Str("patient_id", res.Appointment.PatientID.String()).
		Bool("new_patient", res.Outcome.IsNew).
		Msg("appointment booked")
	return &res, nil
}

// Cancel marks the appointment cancelled. Cancelling an already cancelled
// appointment returns it unchanged.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	var out *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		if a.Status == StatusCancelled {
			out = a
			return nil
		}
		if !CanTransition(a.Status, StatusCancelled) {
			return fmt.Errorf("%w: status is %s", ErrNotCancellable, a.Status)
		}

		var why *string
		if reason != "" {
			why = &reason
		}
		out, err = s.updateStatus(ctx, id, StatusCancelled, why)
		return err
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")
	return out, nil
}

// Transition moves an appointment to status along the appointment lifecycle.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, &identity.ValidationError{Field: "status"}
	}
	if status == StatusCancelled {
		return s.Cancel(ctx, id, "")
	}

	var out *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(a.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, status)
		}
		out, err = s.updateStatus(ctx, id, status, nil)
		return err
	})
	if err != nil {
		return nil, txError(err)
	}
	return out, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.get(ctx, id)
}

// ListPatientAppointments pages through a patient's appointments, newest first.
func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	items, total, err := s.appointments.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, &identity.StorageError{Op: "list appointments", Err: err}
	}
	return items, total, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, &identity.StorageError{Op: "get appointment", Err: err}
	}
	return a, nil
}

func (s *Service) updateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) (*Appointment, error) {
	a, err := s.appointments.UpdateStatus(ctx, id, status, reason)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, &identity.StorageError{Op: "update appointment status", Err: err}
	}
	return a, nil
}

// txError keeps lifecycle errors intact for the handler and reports any other
// transaction failure as a storage error.
func txError(err error) error {
	if errors.Is(err, ErrAppointmentNotFound) || errors.Is(err, ErrNotCancellable) || errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return identity.TxError(err)
}
