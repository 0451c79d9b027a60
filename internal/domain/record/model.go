package record

import (
	"time"

	"github.com/google/uuid"
)

// Prescription statuses.
const (
	PrescriptionActive       = "active"
	PrescriptionCompleted    = "completed"
	PrescriptionDiscontinued = "discontinued"
)

// MedicalRecord is one consultation note. Vitals is free-form JSONB.
type MedicalRecord struct {
	ID            uuid.UUID              `db:"id" json:"id"`
	RecordNumber  string                 `db:"record_number" json:"record_number"`
	PatientID     uuid.UUID              `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID              `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID             `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     string                 `db:"diagnosis" json:"diagnosis"`
	Symptoms      []string               `db:"symptoms" json:"symptoms"`
	Treatment     string                 `db:"treatment" json:"treatment"`
	Vitals        map[string]interface{} `db:"vitals" json:"vitals,omitempty"`
	Notes         string                 `db:"notes" json:"notes"`
	FollowUpDate  *time.Time             `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time              `db:"updated_at" json:"updated_at"`
}

// Medication is one line of a prescription, stored inside the medications
// JSONB column.
type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

type Prescription struct {
	ID                 uuid.UUID    `db:"id" json:"id"`
	PrescriptionNumber string       `db:"prescription_number" json:"prescription_number"`
	PatientID          uuid.UUID    `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	RecordID           *uuid.UUID   `db:"record_id" json:"record_id,omitempty"`
	Medications        []Medication `db:"medications" json:"medications"`
	Notes              string       `db:"notes" json:"notes"`
	Status             string       `db:"status" json:"status"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// RecordInput is the creation payload for a medical record.
type RecordInput struct {
	PatientID     uuid.UUID              `json:"patient_id"`
	AppointmentID *uuid.UUID             `json:"appointment_id"`
	Diagnosis     string                 `json:"diagnosis"`
	Symptoms      []string               `json:"symptoms"`
	Treatment     string                 `json:"treatment"`
	Vitals        map[string]interface{} `json:"vitals"`
	Notes         string                 `json:"notes"`
	FollowUpDate  *string                `json:"follow_up_date"`
}

// PrescriptionInput is the creation payload for a prescription.
type PrescriptionInput struct {
	PatientID   uuid.UUID    `json:"patient_id"`
	RecordID    *uuid.UUID   `json:"record_id"`
	Medications []Medication `json:"medications"`
	Notes       string       `json:"notes"`
}
