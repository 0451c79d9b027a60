package record

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("invalid record payload")
)

type Repository interface {
	CreateRecord(ctx context.Context, r *MedicalRecord) error
	GetRecordByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	ListRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
	ListRecordsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)

	CreatePrescription(ctx context.Context, p *Prescription) error
	GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Prescription, int, error)
	UpdatePrescriptionStatus(ctx context.Context, id uuid.UUID, status string) error
}
