package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/audit"
)

const (
	keyDashboard    = "analytics:dashboard"
	keyPatients     = "analytics:patients"
	keyAppointments = "analytics:appointments"
	keyDoctors      = "analytics:doctors"
	keyRevenue      = "analytics:revenue"
)

// Service serves aggregated statistics, memoized through the cache so
// repeated dashboard loads do not hammer the aggregation queries.
type Service struct {
	repo     Repository
	cache    Cache
	recorder audit.Recorder
	ttl      time.Duration
	log      zerolog.Logger
}

func NewService(repo Repository, cache Cache, recorder audit.Recorder, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{repo: repo, cache: cache, recorder: recorder, ttl: ttl, log: log}
}

// cached returns the entry under key if fresh, otherwise recomputes and
// stores it. Cache failures degrade to a direct compute.
func cached[T any](ctx context.Context, s *Service, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	blob, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if ok {
		var out T
		if err := json.Unmarshal(blob, &out); err == nil {
			return out, nil
		}
		s.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	out, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	if blob, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, blob, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return out, nil
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	return cached(ctx, s, keyDashboard, s.repo.Dashboard)
}

func (s *Service) Patients(ctx context.Context) (*PatientStats, error) {
	return cached(ctx, s, keyPatients, s.repo.PatientBreakdown)
}

func (s *Service) Appointments(ctx context.Context) (*AppointmentStats, error) {
	return cached(ctx, s, keyAppointments, s.repo.AppointmentBreakdown)
}

func (s *Service) Doctors(ctx context.Context) ([]DoctorLoad, error) {
	return cached(ctx, s, keyDoctors, s.repo.DoctorWorkload)
}

func (s *Service) Revenue(ctx context.Context) (*RevenueStats, error) {
	return cached(ctx, s, keyRevenue, s.repo.Revenue)
}

// ClearCache drops analytics entries and records who asked for it. An empty
// typ clears everything; otherwise only entries of that type go.
func (s *Service) ClearCache(ctx context.Context, actorID uuid.UUID, typ, ip string) (int64, error) {
	prefix := "analytics:"
	if typ != "" {
		prefix += typ
	}
	n, err := s.cache.Invalidate(ctx, prefix)
	if err != nil {
		return 0, err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:      &actorID,
		Action:      audit.ActionCacheClear,
		Category:    audit.CategoryAdmin,
		Description: "cleared " + prefix + "*",
		IP:          ip,
	})
	return n, nil
}

func (s *Service) CacheStats(ctx context.Context) (*CacheStats, error) {
	return s.cache.Stats(ctx)
}

// StartCleanup sweeps expired cache rows until done is closed.
func (s *Service) StartCleanup(done <-chan struct{}, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := s.cache.CleanExpired(ctx)
				cancel()
				if err != nil {
					s.log.Error().Err(err).Msg("cache cleanup failed")
				} else if n > 0 {
					s.log.Debug().Int64("removed", n).Msg("cache cleanup")
				}
			}
		}
	}()
}
