package record

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/audit"
	"github.com/hms/hms/internal/platform/notification"
)

// Contact is a notification recipient looked up by user id.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// ContactSource resolves patient contact details for prescription
// notifications.
type ContactSource interface {
	PatientContact(ctx context.Context, patientID uuid.UUID) (*Contact, error)
}

type Service struct {
	repo     Repository
	contacts ContactSource
	audit    audit.Recorder
	notify   *notification.Dispatcher
	log      zerolog.Logger
}

func NewService(repo Repository, contacts ContactSource, recorder audit.Recorder, notify *notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		contacts: contacts,
		audit:    recorder,
		notify:   notify,
		log:      logger.With().Str("component", "record").Logger(),
	}
}

// Record and prescription numbers are epoch-millis plus a random suffix, so
// they need no sequence coordination.
func newNumber(prefix string) string {
	return fmt.Sprintf("%s%d%04d", prefix, time.Now().UnixMilli(), rand.Intn(10000))
}

// CreateRecord writes a consultation note. Doctor-only; the handler enforces
// the role, the service stamps the author.
func (s *Service) CreateRecord(ctx context.Context, in RecordInput, doctorID uuid.UUID) (*MedicalRecord, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if in.Diagnosis == "" {
		return nil, fmt.Errorf("%w: diagnosis is required", ErrValidation)
	}

	rec := &MedicalRecord{
		RecordNumber:  newNumber("MR"),
		PatientID:     in.PatientID,
		DoctorID:      doctorID,
		AppointmentID: in.AppointmentID,
		Diagnosis:     in.Diagnosis,
		Symptoms:      in.Symptoms,
		Treatment:     in.Treatment,
		Vitals:        in.Vitals,
		Notes:         in.Notes,
	}
	if in.FollowUpDate != nil {
		d, err := time.Parse("2006-01-02", *in.FollowUpDate)
		if err != nil {
			return nil, fmt.Errorf("%w: follow_up_date must be YYYY-MM-DD", ErrValidation)
		}
		rec.FollowUpDate = &d
	}
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:       &doctorID,
		Action:       audit.ActionRecordCreate,
		ResourceType: "medical_record",
		ResourceID:   rec.ID.String(),
		Category:     audit.CategoryData,
	})
	return rec, nil
}

// Record loads one medical record and audits the read.
func (s *Service) Record(ctx context.Context, id, viewerID uuid.UUID) (*MedicalRecord, error) {
	rec, err := s.repo.GetRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:       &viewerID,
		Action:       audit.ActionRecordView,
		ResourceType: "medical_record",
		ResourceID:   rec.ID.String(),
		Category:     audit.CategoryData,
	})
	return rec, nil
}

func (s *Service) RecordsForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.repo.ListRecordsByPatient(ctx, patientID, limit, offset)
}

func (s *Service) RecordsForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.repo.ListRecordsByDoctor(ctx, doctorID, limit, offset)
}

// RecentRecords loads a patient's latest records for dashboards.
func (s *Service) RecentRecords(ctx context.Context, patientID uuid.UUID, limit int) ([]*MedicalRecord, error) {
	records, _, err := s.repo.ListRecordsByPatient(ctx, patientID, limit, 0)
	return records, err
}

// CreatePrescription issues a prescription in the active state and notifies
// the patient best-effort.
func (s *Service) CreatePrescription(ctx context.Context, in PrescriptionInput, doctorID uuid.UUID) (*Prescription, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if len(in.Medications) == 0 {
		return nil, fmt.Errorf("%w: at least one medication is required", ErrValidation)
	}
	for _, med := range in.Medications {
		if med.Name == "" || med.Dosage == "" {
			return nil, fmt.Errorf("%w: every medication needs a name and dosage", ErrValidation)
		}
	}

	p := &Prescription{
		PrescriptionNumber: newNumber("RX"),
		PatientID:          in.PatientID,
		DoctorID:           doctorID,
		RecordID:           in.RecordID,
		Medications:        in.Medications,
		Notes:              in.Notes,
		Status:             PrescriptionActive,
	}
	if err := s.repo.CreatePrescription(ctx, p); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:       &doctorID,
		Action:       audit.ActionPrescription,
		ResourceType: "prescription",
		ResourceID:   p.ID.String(),
		Category:     audit.CategoryData,
	})

	if s.notify != nil && s.contacts != nil {
		if contact, err := s.contacts.PatientContact(ctx, p.PatientID); err == nil {
			s.notify.Dispatch(ctx, notification.Recipient{
				UserID: &p.PatientID,
				Email:  contact.Email,
				Phone:  contact.Phone,
				Name:   contact.Name,
			}, notification.TplPrescriptionIssued, map[string]string{
				"number": p.PrescriptionNumber,
				"doctor": "your doctor",
			})
		} else {
			s.log.Warn().Err(err).Str("patient_id", p.PatientID.String()).Msg("patient contact lookup failed")
		}
	}
	return p, nil
}

func (s *Service) Prescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetPrescriptionByID(ctx, id)
}

func (s *Service) PrescriptionsForPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListPrescriptionsByPatient(ctx, patientID, status, limit, offset)
}

// ActivePrescriptions loads a patient's active prescriptions for dashboards.
func (s *Service) ActivePrescriptions(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	list, _, err := s.repo.ListPrescriptionsByPatient(ctx, patientID, PrescriptionActive, 100, 0)
	return list, err
}

// Discontinue stops an active prescription.
func (s *Service) Discontinue(ctx context.Context, id, doctorID uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetPrescriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != PrescriptionActive {
		return nil, fmt.Errorf("%w: prescription is %s", ErrValidation, p.Status)
	}
	if err := s.repo.UpdatePrescriptionStatus(ctx, id, PrescriptionDiscontinued); err != nil {
		return nil, err
	}
	p.Status = PrescriptionDiscontinued

	s.audit.Record(ctx, audit.Entry{
		UserID:       &doctorID,
		Action:       audit.ActionPrescription,
		ResourceType: "prescription",
		ResourceID:   p.ID.String(),
		Description:  "discontinued",
		Category:     audit.CategoryData,
	})
	return p, nil
}
