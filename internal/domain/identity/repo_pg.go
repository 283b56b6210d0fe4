package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/intake/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, name, phone, age, gender, email, addresses, blood_group, allergies,
	emergency_contact, external_health_id, notes, created_at, updated_at`

const codeCols = `id, patient_id, clinic_id, doctor_id, code, active, created_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()

	addresses, contact, err := encodePatientJSON(p)
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}

	q := r.conn(ctx)
	err = q.QueryRow(ctx, `
		INSERT INTO patient (
			id, name, phone, age, gender, email, addresses, blood_group, allergies,
			emergency_contact, external_health_id, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Phone, p.Age, p.Gender, p.Email, addresses, p.BloodGroup, p.Allergies,
		contact, p.ExternalHealthID, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}

	for i := range p.Codes {
		c := &p.Codes[i]
		c.ID = uuid.New()
		c.PatientID = p.ID
		err := q.QueryRow(ctx, `
			INSERT INTO patient_code (id, patient_id, clinic_id, doctor_id, code, active)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING created_at`,
			c.ID, c.PatientID, c.ClinicID, c.DoctorID, c.Code, c.Active,
		).Scan(&c.CreatedAt)
		if err != nil {
			return fmt.Errorf("patient code create %q: %w", c.Code, err)
		}
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patient get by id: %w", err)
	}
	if err := r.loadCodes(ctx, []*Patient{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	addresses, contact, err := encodePatientJSON(p)
	if err != nil {
		return fmt.Errorf("patient update: %w", err)
	}

	err = r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			name=$2, age=$3, gender=$4, email=$5, addresses=$6, blood_group=$7, allergies=$8,
			emergency_contact=$9, external_health_id=$10, notes=$11, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.Age, p.Gender, p.Email, addresses, p.BloodGroup, p.Allergies,
		contact, p.ExternalHealthID, p.Notes,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("patient update: %w", err)
	}
	return nil
}

func (r *patientRepoPG) FindByPhoneInClinic(ctx context.Context, phone string, clinicID uuid.UUID) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patient p
		WHERE p.phone = $1
		  AND EXISTS (
			SELECT 1 FROM patient_code pc
			WHERE pc.patient_id = p.id AND pc.clinic_id = $2
		  )
		ORDER BY p.created_at, p.id`, phone, clinicID)
	if err != nil {
		return nil, fmt.Errorf("patient find by phone: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patient find by phone: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patient find by phone: %w", err)
	}

	if err := r.loadCodes(ctx, patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// loadCodes fills Codes on each patient in creation order.
func (r *patientRepoPG) loadCodes(ctx context.Context, patients []*Patient) error {
	if len(patients) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Patient, len(patients))
	ids := make([]uuid.UUID, 0, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+codeCols+` FROM patient_code
		WHERE patient_id = ANY($1)
		ORDER BY created_at, id`, ids)
	if err != nil {
		return fmt.Errorf("patient codes load: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c PatientCode
		if err := rows.Scan(&c.ID, &c.PatientID, &c.ClinicID, &c.DoctorID, &c.Code, &c.Active, &c.CreatedAt); err != nil {
			return fmt.Errorf("patient codes load: %w", err)
		}
		if p, ok := byID[c.PatientID]; ok {
			p.Codes = append(p.Codes, c)
		}
	}
	return rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p         Patient
		addresses []byte
		contact   []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.Age, &p.Gender, &p.Email, &addresses, &p.BloodGroup, &p.Allergies,
		&contact, &p.ExternalHealthID, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(addresses) > 0 {
		if err := json.Unmarshal(addresses, &p.Addresses); err != nil {
			return nil, fmt.Errorf("decode addresses: %w", err)
		}
	}
	if len(contact) > 0 {
		if err := json.Unmarshal(contact, &p.EmergencyContact); err != nil {
			return nil, fmt.Errorf("decode emergency contact: %w", err)
		}
	}
	return &p, nil
}

// encodePatientJSON renders the JSONB columns. A nil slice or contact is
// stored as SQL NULL so that an empty list stays distinguishable from absent.
func encodePatientJSON(p *Patient) (addresses, contact []byte, err error) {
	if p.Addresses != nil {
		if addresses, err = json.Marshal(p.Addresses); err != nil {
			return nil, nil, fmt.Errorf("encode addresses: %w", err)
		}
	}
	if p.EmergencyContact != nil {
		if contact, err = json.Marshal(p.EmergencyContact); err != nil {
			return nil, nil, fmt.Errorf("encode emergency contact: %w", err)
		}
	}
	return addresses, contact, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
