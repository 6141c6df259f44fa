package service

import (
	"context"
	"fmt"
	"time"

	"decom/internal/logger"
	"decom/internal/model"
	"decom/internal/schedule"

	"gorm.io/gorm"
)

const (
	publicStatsKey = "stats:public"
	upcomingDays   = 30
)

// Cache is a shared key/value store for computed aggregates.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type StatsService struct {
	db    *gorm.DB
	clock *schedule.Clock
	cache Cache
	ttl   time.Duration
}

// NewStatsService accepts a nil cache; stats are then computed on every call.
func NewStatsService(db *gorm.DB, clock *schedule.Clock, cache Cache, ttl time.Duration) *StatsService {
	return &StatsService{db: db, clock: clock, cache: cache, ttl: ttl}
}

func (s *StatsService) Public(ctx context.Context) (*model.PublicStats, error) {
	if s.cache != nil {
		var cached model.PublicStats
		found, err := s.cache.Get(ctx, publicStatsKey, &cached)
		if err != nil {
			logger.Warn("stats.cache_get_failed", "err", err)
		} else if found {
			return &cached, nil
		}
	}

	st, err := s.public(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, publicStatsKey, st, s.ttl); err != nil {
			logger.Warn("stats.cache_set_failed", "err", err)
		}
	}
	return st, nil
}

// Invalidate drops cached aggregates after a write.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, publicStatsKey); err != nil {
		logger.Warn("stats.cache_invalidate_failed", "err", err)
	}
}

func (s *StatsService) public(ctx context.Context) (*model.PublicStats, error) {
	db := s.db.WithContext(ctx)
	active := func(tx *gorm.DB) *gorm.DB { return tx.Model(&model.Request{}).Where("archived_at IS NULL") }

	st := &model.PublicStats{ByStatus: map[string]int64{}, ByMaterial: map[string]int64{}}
	for _, status := range model.Statuses {
		st.ByStatus[status] = 0
	}
	for _, m := range model.MaterialTypes {
		st.ByMaterial[m] = 0
	}

	var byStatus []struct {
		Status string
		N      int64
	}
	if err := db.Scopes(active).Select("status, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("stats by status: %w", err)
	}
	for _, row := range byStatus {
		st.ByStatus[row.Status] = row.N
		st.Total += row.N
	}
	st.Delivered = st.ByStatus[model.StatusDelivered]
	st.InProgress = st.Total - st.Delivered - st.ByStatus[model.StatusPending]

	var byMaterial []struct {
		MaterialType string
		N            int64
	}
	if err := db.Scopes(active).Select("material_type, COUNT(*) AS n").Group("material_type").Scan(&byMaterial).Error; err != nil {
		return nil, fmt.Errorf("stats by material: %w", err)
	}
	for _, row := range byMaterial {
		st.ByMaterial[row.MaterialType] = row.N
	}

	today := s.clock.Today()
	err := db.Scopes(active).
		Where("event_date >= ? AND event_date < ?", today, today.AddDays(upcomingDays)).
		Count(&st.UpcomingEvents).Error
	if err != nil {
		return nil, fmt.Errorf("stats upcoming: %w", err)
	}
	if err := db.Model(&model.Committee{}).Count(&st.Committees).Error; err != nil {
		return nil, fmt.Errorf("stats committees: %w", err)
	}
	return st, nil
}

// Admin extends the public figures with dashboard-only counters. It is never cached.
func (s *StatsService) Admin(ctx context.Context) (*model.AdminStats, error) {
	pub, err := s.public(ctx)
	if err != nil {
		return nil, err
	}
	st := &model.AdminStats{PublicStats: *pub, ByPriority: map[int]int64{}, ByCommittee: map[string]int64{}}
	db := s.db.WithContext(ctx)
	today := s.clock.Today()

	if err := db.Model(&model.Request{}).Where("archived_at IS NOT NULL").Count(&st.Archived).Error; err != nil {
		return nil, fmt.Errorf("stats archived: %w", err)
	}

	open := func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&model.Request{}).Where("archived_at IS NULL AND status <> ?", model.StatusDelivered)
	}
	if err := db.Scopes(open).Where("event_date < ?", today).Count(&st.Overdue).Error; err != nil {
		return nil, fmt.Errorf("stats overdue: %w", err)
	}

	// Buckets mirror schedule.Priority: more than 7 days, more than 2, the rest.
	buckets := []struct {
		score int
		scope func(*gorm.DB) *gorm.DB
	}{
		{schedule.PriorityLow, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("event_date > ?", today.AddDays(schedule.PlanningLeadDays))
		}},
		{schedule.PriorityMedium, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("event_date > ? AND event_date <= ?", today.AddDays(schedule.DeliveryLeadDays), today.AddDays(schedule.PlanningLeadDays))
		}},
		{schedule.PriorityHigh, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("event_date <= ?", today.AddDays(schedule.DeliveryLeadDays))
		}},
	}
	for _, b := range buckets {
		var n int64
		if err := db.Scopes(open, b.scope).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("stats priority %d: %w", b.score, err)
		}
		st.ByPriority[b.score] = n
	}

	var byCommittee []struct {
		Name string
		N    int64
	}
	err = db.Table("requests AS r").
		Select("c.name AS name, COUNT(*) AS n").
		Joins("JOIN committees AS c ON c.id = r.committee_id").
		Where("r.archived_at IS NULL").
		Group("c.name").
		Scan(&byCommittee).Error
	if err != nil {
		return nil, fmt.Errorf("stats by committee: %w", err)
	}
	for _, row := range byCommittee {
		st.ByCommittee[row.Name] = row.N
	}

	if err := db.Model(&model.User{}).Where("active = ?", true).Count(&st.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("stats users: %w", err)
	}
	return st, nil
}
