package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/intake/internal/domain/identity"
	"github.com/ehr/intake/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, clinic_id, doctor_id, status, start_time, reason,
	cancellation_reason, created_at, updated_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ClinicID, &a.DoctorID, &a.Status, &a.StartTime, &a.Reason,
		&a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, clinic_id, doctor_id, status, start_time, reason, cancellation_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.ClinicID, a.DoctorID, a.Status, a.StartTime, a.Reason, a.CancellationReason,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointment create: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointment get by id: %w", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, cancellationReason *string) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET
			status = $2,
			cancellation_reason = COALESCE($3, cancellation_reason),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+apptCols, id, status, cancellationReason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointment update status: %w", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("appointment count by patient: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointment WHERE patient_id = $1 ORDER BY start_time DESC NULLS LAST, created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("appointment list by patient: %w", err)
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("appointment list by patient: %w", err)
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// StatusSummaries counts appointments per patient in a single grouped query.
// Patients without appointments are absent from the result.
func (r *appointmentRepoPG) StatusSummaries(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]identity.AppointmentStatusSummary, error) {
	out := make(map[uuid.UUID]identity.AppointmentStatusSummary, len(patientIDs))
	if len(patientIDs) == 0 {
		return out, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT patient_id,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2)
		FROM appointment
		WHERE patient_id = ANY($1)
		GROUP BY patient_id`, patientIDs, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("appointment status summaries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id uuid.UUID
			s  identity.AppointmentStatusSummary
		)
		if err := rows.Scan(&id, &s.Total, &s.Cancelled); err != nil {
			return nil, fmt.Errorf("appointment status summaries: %w", err)
		}
		out[id] = s
	}
	return out, rows.Err()
}
