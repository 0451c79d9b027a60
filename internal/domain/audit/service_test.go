package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	logs      []*Log
	createErr error
}

func (m *mockRepo) Create(_ context.Context, l *Log) error {
	if m.createErr != nil {
		return m.createErr
	}
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	m.logs = append(m.logs, l)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Log, error) {
	for _, l := range m.logs {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Search(_ context.Context, f Filter, limit, offset int) ([]*Log, int, error) {
	var out []*Log
	for _, l := range m.logs {
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.UserID != nil && (l.UserID == nil || *l.UserID != *f.UserID) {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (m *mockRepo) CountDistinctIPs(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	ips := map[string]bool{}
	for _, l := range m.logs {
		if l.UserID != nil && *l.UserID == userID && l.IP != nil {
			ips[*l.IP] = true
		}
	}
	return len(ips), nil
}

func (m *mockRepo) CountFailedLogins(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, l := range m.logs {
		if l.UserID != nil && *l.UserID == userID && l.Action == ActionLoginFailed {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CountActions(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, l := range m.logs {
		if l.UserID != nil && *l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) Statistics(_ context.Context, since time.Time) (*Statistics, error) {
	stats := &Statistics{BySeverity: map[string]int{}, ByCategory: map[string]int{}, ByAction: map[string]int{}}
	for _, l := range m.logs {
		stats.Total++
		if l.Status == StatusFailure {
			stats.Failures++
		}
		stats.BySeverity[l.Severity]++
		stats.ByCategory[l.Category]++
		stats.ByAction[l.Action]++
	}
	return stats, nil
}

func (m *mockRepo) MarkReviewed(_ context.Context, id, reviewerID uuid.UUID) error {
	l, err := m.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	now := time.Now()
	l.ReviewedBy = &reviewerID
	l.ReviewedAt = &now
	return nil
}

func (m *mockRepo) MarkSuspicious(_ context.Context, id uuid.UUID) error {
	l, err := m.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	l.Suspicious = true
	l.Severity = SeverityHigh
	return nil
}

func (m *mockRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	kept := m.logs[:0]
	var n int64
	for _, l := range m.logs {
		if l.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.logs = kept
	return n, nil
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, zerolog.Nop())
}

// -- Tests --

func TestRecordDefaults(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	svc.Record(context.Background(), Entry{Action: ActionLogin})

	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(repo.logs))
	}
	l := repo.logs[0]
	if l.Status != StatusSuccess {
		t.Errorf("expected default status success, got %s", l.Status)
	}
	if l.Severity != SeverityLow {
		t.Errorf("expected default severity low, got %s", l.Severity)
	}
	if l.Category != CategoryGeneral {
		t.Errorf("expected default category general, got %s", l.Category)
	}
}

func TestRecordNilUser(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	svc.Record(context.Background(), Entry{
		Action:      ActionLoginFailed,
		Status:      StatusFailure,
		Category:    CategoryAuth,
		Description: "unknown email",
		IP:          "10.0.0.1",
	})

	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(repo.logs))
	}
	l := repo.logs[0]
	if l.UserID != nil {
		t.Error("expected nil user id for failed login with unknown email")
	}
	if l.Status != StatusFailure {
		t.Errorf("expected failure status, got %s", l.Status)
	}
	if l.IP == nil || *l.IP != "10.0.0.1" {
		t.Error("expected IP to be recorded")
	}
}

func TestRecordSwallowsRepoError(t *testing.T) {
	repo := &mockRepo{createErr: context.DeadlineExceeded}
	svc := newTestService(repo)

	// Must not panic or propagate the error.
	svc.Record(context.Background(), Entry{Action: ActionLogin})
}

func TestDetectAnomaliesClean(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	userID := uuid.New()

	svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionLogin, IP: "1.1.1.1"})

	anomalies, err := svc.DetectAnomalies(context.Background(), userID, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies, got %d", len(anomalies))
	}
}

func TestDetectAnomaliesMultipleIPs(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	userID := uuid.New()

	for _, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"} {
		svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionLogin, IP: ip})
	}

	anomalies, err := svc.DetectAnomalies(context.Background(), userID, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(anomalies))
	}
	if anomalies[0].Type != "multiple_ips" {
		t.Errorf("expected multiple_ips, got %s", anomalies[0].Type)
	}
	if anomalies[0].Severity != SeverityMedium {
		t.Errorf("expected medium severity, got %s", anomalies[0].Severity)
	}
	if anomalies[0].Count != 4 {
		t.Errorf("expected count 4, got %d", anomalies[0].Count)
	}
}

func TestDetectAnomaliesFailedLogins(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	userID := uuid.New()

	for i := 0; i < 6; i++ {
		svc.Record(context.Background(), Entry{
			UserID: &userID,
			Action: ActionLoginFailed,
			Status: StatusFailure,
			IP:     "1.1.1.1",
		})
	}

	anomalies, err := svc.DetectAnomalies(context.Background(), userID, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var found *Anomaly
	for i := range anomalies {
		if anomalies[i].Type == "failed_logins" {
			found = &anomalies[i]
		}
	}
	if found == nil {
		t.Fatal("expected failed_logins anomaly")
	}
	if found.Severity != SeverityHigh {
		t.Errorf("expected high severity, got %s", found.Severity)
	}
	if !strings.Contains(found.Details, "6") {
		t.Errorf("expected details to mention count, got %q", found.Details)
	}
}

func TestDetectAnomaliesBoundary(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	userID := uuid.New()

	// Exactly at the thresholds, nothing should fire.
	for _, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionLogin, IP: ip})
	}
	for i := 0; i < 2; i++ {
		svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionLoginFailed, IP: "1.1.1.1"})
	}

	anomalies, err := svc.DetectAnomalies(context.Background(), userID, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies at thresholds, got %d", len(anomalies))
	}
}

func TestReviewAndFlag(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	userID := uuid.New()
	reviewer := uuid.New()

	svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionLogin})
	id := repo.logs[0].ID

	if err := svc.Review(context.Background(), id, reviewer); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if repo.logs[0].ReviewedBy == nil || *repo.logs[0].ReviewedBy != reviewer {
		t.Error("expected reviewer to be recorded")
	}

	if err := svc.FlagSuspicious(context.Background(), id); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if !repo.logs[0].Suspicious {
		t.Error("expected log to be flagged suspicious")
	}
	if repo.logs[0].Severity != SeverityHigh {
		t.Error("expected severity bumped to high")
	}

	if err := svc.Review(context.Background(), uuid.New(), reviewer); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestStatistics(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	userID := uuid.New()

	svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionLogin, Category: CategoryAuth})
	svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionLoginFailed, Status: StatusFailure, Category: CategoryAuth})
	svc.Record(context.Background(), Entry{UserID: &userID, Action: ActionAppointmentBook, Category: CategoryData})

	stats, err := svc.Statistics(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failures)
	}
	if stats.ByCategory[CategoryAuth] != 2 {
		t.Errorf("expected 2 auth entries, got %d", stats.ByCategory[CategoryAuth])
	}
}
