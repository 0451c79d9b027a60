package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recorder is the write side of the activity log. Domain services depend on
// this instead of the full Service so they stay decoupled from querying.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger.With().Str("component", "audit").Logger()}
}

// Record writes one activity entry. Failures are logged and swallowed so an
// unavailable audit store never fails the operation being audited.
func (s *Service) Record(ctx context.Context, e Entry) {
	l := &Log{
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		Status:       e.Status,
		Severity:     e.Severity,
		Category:     e.Category,
	}
	if l.Status == "" {
		l.Status = StatusSuccess
	}
	if l.Severity == "" {
		l.Severity = SeverityLow
	}
	if l.Category == "" {
		l.Category = CategoryGeneral
	}
	if e.ResourceID != "" {
		l.ResourceID = &e.ResourceID
	}
	if e.Description != "" {
		l.Description = &e.Description
	}
	if e.IP != "" {
		l.IP = &e.IP
	}
	if e.UserAgent != "" {
		l.UserAgent = &e.UserAgent
	}

	if err := s.repo.Create(ctx, l); err != nil {
		s.log.Error().Err(err).Str("action", e.Action).Msg("failed to write audit log")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Log, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter, limit, offset int) ([]*Log, int, error) {
	return s.repo.Search(ctx, f, limit, offset)
}

func (s *Service) Statistics(ctx context.Context, window time.Duration) (*Statistics, error) {
	return s.repo.Statistics(ctx, time.Now().UTC().Add(-window))
}

// DetectAnomalies runs the heuristics over a user's activity in the last
// windowHours hours.
func (s *Service) DetectAnomalies(ctx context.Context, userID uuid.UUID, windowHours int) ([]Anomaly, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	since := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	var anomalies []Anomaly

	ips, err := s.repo.CountDistinctIPs(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if ips > anomalyMaxIPs {
		anomalies = append(anomalies, Anomaly{
			Type:     "multiple_ips",
			Severity: SeverityMedium,
			Count:    ips,
			Details:  fmt.Sprintf("activity from %d distinct IP addresses", ips),
		})
	}

	failed, err := s.repo.CountFailedLogins(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if failed > anomalyMaxFailedLogins {
		anomalies = append(anomalies, Anomaly{
			Type:     "failed_logins",
			Severity: SeverityHigh,
			Count:    failed,
			Details:  fmt.Sprintf("%d failed login attempts", failed),
		})
	}

	actions, err := s.repo.CountActions(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if actions > anomalyMaxActions {
		anomalies = append(anomalies, Anomaly{
			Type:     "high_activity",
			Severity: SeverityMedium,
			Count:    actions,
			Details:  fmt.Sprintf("%d actions in the window", actions),
		})
	}

	return anomalies, nil
}

func (s *Service) Review(ctx context.Context, id, reviewerID uuid.UUID) error {
	return s.repo.MarkReviewed(ctx, id, reviewerID)
}

func (s *Service) FlagSuspicious(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkSuspicious(ctx, id)
}

// StartRetention deletes entries older than the retention period on the given
// interval until done is closed.
func (s *Service) StartRetention(done <-chan struct{}, interval, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := s.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
				cancel()
				if err != nil {
					s.log.Error().Err(err).Msg("audit retention sweep failed")
					continue
				}
				if n > 0 {
					s.log.Info().Int64("deleted", n).Msg("audit retention sweep")
				}
			}
		}
	}()
}
