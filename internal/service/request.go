package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"decom/internal/logger"
	"decom/internal/metrics"
	"decom/internal/model"
	"decom/internal/schedule"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	reasonCreated = "Solicitud creada"
)

// RequestSyncer exports request rows to an external reporting store.
type RequestSyncer interface {
	SyncRequest(ctx context.Context, r model.Request)
	SyncHistory(ctx context.Context, h model.RequestHistory)
}

// PasswordVerifier re-checks an actor's password before destructive actions.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, userID uint, password string) error
}

type RequestService struct {
	db       *gorm.DB
	clock    *schedule.Clock
	verifier PasswordVerifier
	syncer   RequestSyncer
	onChange func(context.Context)
}

func NewRequestService(db *gorm.DB, clock *schedule.Clock, verifier PasswordVerifier) *RequestService {
	return &RequestService{db: db, clock: clock, verifier: verifier}
}

func (s *RequestService) SetSyncer(syncer RequestSyncer) { s.syncer = syncer }

// OnChange registers a hook run after every committed mutation.
func (s *RequestService) OnChange(fn func(context.Context)) { s.onChange = fn }

// Create stores a new request in Pendiente together with its creation history entry.
// actor is nil for public submissions.
func (s *RequestService) Create(ctx context.Context, p model.CreateRequestPayload, actor *Actor) (*model.Request, error) {
	event, err := schedule.ParseDate(p.EventDate)
	if err != nil {
		return nil, err
	}

	r := model.Request{
		CommitteeID:      p.CommitteeID,
		RequesterName:    strings.TrimSpace(p.RequesterName),
		EventName:        strings.TrimSpace(p.EventName),
		EventDescription: strings.TrimSpace(p.EventDescription),
		MaterialType:     p.MaterialType,
		ContactPhone:     strings.TrimSpace(p.ContactPhone),
		IncludeVerse:     p.IncludeVerse,
		Notes:            strings.TrimSpace(p.Notes),
		Status:           model.StatusPending,
	}
	if p.IncludeVerse {
		r.VerseText = strings.TrimSpace(p.VerseText)
	}
	r.Reschedule(event, s.clock.Today())

	entry := model.RequestHistory{NewStatus: model.StatusPending, Reason: reasonCreated}
	if actor != nil {
		r.CreatedBy = &actor.ID
		entry.ActorID = &actor.ID
		entry.ActorName = actor.Name
	} else {
		entry.ActorName = r.RequesterName
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireCommittee(tx, r.CommitteeID); err != nil {
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		entry.RequestID = r.ID
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("request.created", "id", r.ID, "committee", r.CommitteeID, "event_date", r.EventDate.String(), "priority", r.PriorityScore)
	metrics.RequestCreated(r.MaterialType)
	s.committed(ctx, &r, &entry)
	return &r, nil
}

func (s *RequestService) Get(ctx context.Context, id uint) (*model.Request, error) {
	var r model.Request
	err := s.db.WithContext(ctx).Preload("Committee").First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	s.refresh(&r)
	return &r, nil
}

// List orders by event date, which for upcoming events is priority order.
func (s *RequestService) List(ctx context.Context, f model.RequestFilter) (*model.RequestPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	scope, err := filterScope(f)
	if err != nil {
		return nil, err
	}

	page := &model.RequestPage{Page: f.Page, PageSize: f.PageSize}
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Request{}).Scopes(scope).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	err = db.Scopes(scope).Preload("Committee").
		Order("event_date ASC, id ASC").
		Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	for i := range page.Items {
		s.refresh(&page.Items[i])
	}
	if page.Items == nil {
		page.Items = []model.Request{}
	}
	return page, nil
}

func filterScope(f model.RequestFilter) (func(*gorm.DB) *gorm.DB, error) {
	var from, to schedule.Date
	var err error
	if f.From != "" {
		if from, err = schedule.ParseDate(f.From); err != nil {
			return nil, err
		}
	}
	if f.To != "" {
		if to, err = schedule.ParseDate(f.To); err != nil {
			return nil, err
		}
	}
	return func(db *gorm.DB) *gorm.DB {
		if !f.IncludeArchived {
			db = db.Where("archived_at IS NULL")
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.CommitteeID != 0 {
			db = db.Where("committee_id = ?", f.CommitteeID)
		}
		if f.MaterialType != "" {
			db = db.Where("material_type = ?", f.MaterialType)
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where("LOWER(event_name) LIKE ? OR LOWER(requester_name) LIKE ?", like, like)
		}
		if !from.IsZero() {
			db = db.Where("event_date >= ?", from)
		}
		if !to.IsZero() {
			db = db.Where("event_date <= ?", to)
		}
		return db
	}, nil
}

func (s *RequestService) History(ctx context.Context, id uint) ([]model.RequestHistory, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Request{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	var out []model.RequestHistory
	err := s.db.WithContext(ctx).Where("request_id = ?", id).Order("created_at ASC, id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// Update applies a partial edit. Any status may follow any other; a history
// entry is written only when the status actually changes, in the same
// transaction as the row update.
func (s *RequestService) Update(ctx context.Context, id uint, p model.UpdateRequestPayload, actor Actor) (*model.Request, error) {
	var (
		r     model.Request
		entry *model.RequestHistory
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("archived_at IS NULL").First(&r, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("query request: %w", err)
		}

		if p.CommitteeID != nil && *p.CommitteeID != r.CommitteeID {
			if err := s.requireCommittee(tx, *p.CommitteeID); err != nil {
				return err
			}
			r.CommitteeID = *p.CommitteeID
		}
		applyFields(&r, p)
		if r.IncludeVerse && r.VerseText == "" {
			return &FieldError{Field: "verse_text", Message: "verse_text es obligatorio"}
		}
		event := r.EventDate
		if p.EventDate != nil {
			d, err := schedule.ParseDate(*p.EventDate)
			if err != nil {
				return err
			}
			event = d
		}
		r.Reschedule(event, s.clock.Today())

		if p.Status != nil && *p.Status != r.Status {
			old := r.Status
			entry = &model.RequestHistory{
				RequestID: r.ID,
				OldStatus: &old,
				NewStatus: *p.Status,
				Reason:    strings.TrimSpace(p.Reason),
				ActorID:   &actor.ID,
				ActorName: actor.Name,
			}
			r.Status = *p.Status
		}

		r.Committee = nil
		if err := tx.Save(&r).Error; err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("insert history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		logger.Info("request.status_changed", "id", r.ID, "from", *entry.OldStatus, "to", entry.NewStatus, "actor", actor.ID)
		metrics.StatusChanged(entry.NewStatus)
	} else {
		logger.Info("request.updated", "id", r.ID, "actor", actor.ID)
	}
	s.committed(ctx, &r, entry)
	return s.Get(ctx, id)
}

func applyFields(r *model.Request, p model.UpdateRequestPayload) {
	if p.Visible != nil {
		r.Visible = *p.Visible
	}
	if p.RequesterName != nil {
		r.RequesterName = strings.TrimSpace(*p.RequesterName)
	}
	if p.EventName != nil {
		r.EventName = strings.TrimSpace(*p.EventName)
	}
	if p.EventDescription != nil {
		r.EventDescription = strings.TrimSpace(*p.EventDescription)
	}
	if p.MaterialType != nil {
		r.MaterialType = *p.MaterialType
	}
	if p.ContactPhone != nil {
		r.ContactPhone = strings.TrimSpace(*p.ContactPhone)
	}
	if p.IncludeVerse != nil {
		r.IncludeVerse = *p.IncludeVerse
	}
	if p.VerseText != nil {
		r.VerseText = strings.TrimSpace(*p.VerseText)
	}
	if !r.IncludeVerse {
		r.VerseText = ""
	}
	if p.Notes != nil {
		r.Notes = strings.TrimSpace(*p.Notes)
	}
}

// Archive soft-deletes a request after re-checking the actor's password.
// The row is matched by primary key alone, whoever created it.
func (s *RequestService) Archive(ctx context.Context, id uint, reason, password string, actor Actor) error {
	if err := s.verifier.VerifyPassword(ctx, actor.ID, password); err != nil {
		logger.Warn("request.archive_denied", "id", id, "actor", actor.ID)
		return err
	}

	now := s.clock.Now()
	res := s.db.WithContext(ctx).Model(&model.Request{}).
		Where("id = ? AND archived_at IS NULL", id).
		UpdateColumns(map[string]any{
			"archived_at":    now,
			"archived_by":    actor.ID,
			"archive_reason": strings.TrimSpace(reason),
		})
	if res.Error != nil {
		return fmt.Errorf("archive request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.Info("request.archived", "id", id, "actor", actor.ID)
	metrics.RequestArchived()

	var r model.Request
	if err := s.db.WithContext(ctx).First(&r, id).Error; err == nil {
		s.committed(ctx, &r, nil)
	}
	return nil
}

// Calendar returns requests whose event falls in the month starting at month.
// The public view only includes visible requests and hides scheduling details.
func (s *RequestService) Calendar(ctx context.Context, month schedule.Date, public bool) ([]model.CalendarEntry, error) {
	first, next := schedule.Month(month)
	q := s.db.WithContext(ctx).Table("requests AS r").
		Select(`r.id, r.event_name, r.event_date, r.material_type, r.status, r.committee_id,
			c.name AS committee_name, c.color AS committee_color,
			r.planning_start_date, r.delivery_date`).
		Joins("JOIN committees AS c ON c.id = r.committee_id").
		Where("r.archived_at IS NULL AND r.event_date >= ? AND r.event_date < ?", first, next)
	if public {
		q = q.Where("r.visible = ?", true)
	}

	var entries []model.CalendarEntry
	if err := q.Order("r.event_date ASC, r.id ASC").Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("calendar query: %w", err)
	}

	today := s.clock.Today()
	for i := range entries {
		if public {
			entries[i].PlanningStartDate = schedule.Date{}
			entries[i].DeliveryDate = schedule.Date{}
			continue
		}
		entries[i].PriorityScore = schedule.Priority(entries[i].EventDate, today)
	}
	if entries == nil {
		entries = []model.CalendarEntry{}
	}
	return entries, nil
}

func (s *RequestService) requireCommittee(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&model.Committee{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check committee: %w", err)
	}
	if n == 0 {
		return ErrCommitteeNotFound
	}
	return nil
}

// refresh recomputes the priority against today; the stored score ages.
func (s *RequestService) refresh(r *model.Request) {
	r.PriorityScore = schedule.Priority(r.EventDate, s.clock.Today())
}

func (s *RequestService) committed(ctx context.Context, r *model.Request, entry *model.RequestHistory) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
	if s.syncer == nil {
		return
	}
	req := *r
	req.Committee = nil
	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.syncer.SyncRequest(syncCtx, req)
		if entry != nil {
			s.syncer.SyncHistory(syncCtx, *entry)
		}
	}()
}
