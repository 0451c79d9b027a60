package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, record_number, patient_id, doctor_id, appointment_id, diagnosis,
	symptoms, treatment, vitals, notes, follow_up_date, created_at, updated_at`

func (r *repoPG) CreateRecord(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_records (
			id, record_number, patient_id, doctor_id, appointment_id, diagnosis,
			symptoms, treatment, vitals, notes, follow_up_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.RecordNumber, rec.PatientID, rec.DoctorID, rec.AppointmentID,
		rec.Diagnosis, rec.Symptoms, rec.Treatment, rec.Vitals, rec.Notes, rec.FollowUpDate,
	)
	return err
}

func (r *repoPG) GetRecordByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *repoPG) ListRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return r.listRecords(ctx, "patient_id", patientID, limit, offset)
}

func (r *repoPG) ListRecordsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return r.listRecords(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *repoPG) listRecords(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM medical_records WHERE %s = $1`, col), id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM medical_records WHERE %s = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, recordCols, col),
		id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*MedicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

const prescriptionCols = `id, prescription_number, patient_id, doctor_id, record_id,
	medications, notes, status, created_at, updated_at`

func (r *repoPG) CreatePrescription(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (
			id, prescription_number, patient_id, doctor_id, record_id, medications, notes, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.PrescriptionNumber, p.PatientID, p.DoctorID, p.RecordID, p.Medications, p.Notes, p.Status,
	)
	return err
}

func (r *repoPG) GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Prescription, int, error) {
	where := ` WHERE patient_id = $1`
	args := []interface{}{patientID}
	idx := 2
	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + prescriptionCols + ` FROM prescriptions` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func (r *repoPG) UpdatePrescriptionStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescriptions SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var rec MedicalRecord
	err := row.Scan(
		&rec.ID, &rec.RecordNumber, &rec.PatientID, &rec.DoctorID, &rec.AppointmentID,
		&rec.Diagnosis, &rec.Symptoms, &rec.Treatment, &rec.Vitals, &rec.Notes,
		&rec.FollowUpDate, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID, &p.PrescriptionNumber, &p.PatientID, &p.DoctorID, &p.RecordID,
		&p.Medications, &p.Notes, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
