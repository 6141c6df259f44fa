package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"decom/internal/logger"
	"decom/internal/model"

	"gorm.io/gorm"
)

type CommitteeService struct {
	db       *gorm.DB
	onChange func(context.Context)
}

func NewCommitteeService(db *gorm.DB) *CommitteeService { return &CommitteeService{db: db} }

// OnChange registers a hook run after every committee mutation.
func (s *CommitteeService) OnChange(fn func(context.Context)) { s.onChange = fn }

func (s *CommitteeService) List(ctx context.Context) ([]model.Committee, error) {
	var out []model.Committee
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list committees: %w", err)
	}
	return out, nil
}

func (s *CommitteeService) Get(ctx context.Context, id uint) (*model.Committee, error) {
	var c model.Committee
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query committee: %w", err)
	}
	return &c, nil
}

func (s *CommitteeService) Create(ctx context.Context, p model.CommitteePayload) (*model.Committee, error) {
	name := strings.TrimSpace(p.Name)
	if err := s.ensureUniqueName(ctx, name, 0); err != nil {
		return nil, err
	}
	c := model.Committee{Name: name, Description: strings.TrimSpace(p.Description), Color: strings.ToLower(p.Color)}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, dbErr("insert committee", err)
	}
	logger.Info("committee.created", "id", c.ID, "name", c.Name)
	s.changed(ctx)
	return &c, nil
}

func (s *CommitteeService) Update(ctx context.Context, id uint, p model.CommitteePayload) (*model.Committee, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(p.Name)
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(c).Updates(map[string]any{
		"name":        name,
		"name_key":    model.CommitteeKey(name),
		"description": strings.TrimSpace(p.Description),
		"color":       strings.ToLower(p.Color),
	}).Error
	if err != nil {
		return nil, dbErr("update committee", err)
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete refuses while any request, archived or not, still references the committee.
func (s *CommitteeService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Committee
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("query committee: %w", err)
		}
		var refs int64
		if err := tx.Model(&model.Request{}).Where("committee_id = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("count requests: %w", err)
		}
		if refs > 0 {
			logger.Warn("committee.delete_refused", "id", id, "requests", refs)
			return ErrCommitteeInUse
		}
		if err := tx.Delete(&c).Error; err != nil {
			return fmt.Errorf("delete committee: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("committee.deleted", "id", id)
	s.changed(ctx)
	return nil
}

// ensureUniqueName gives a clean 409 for the common case; the unique index on
// name_key still decides under concurrent writes.
func (s *CommitteeService) ensureUniqueName(ctx context.Context, name string, exceptID uint) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Committee{}).
		Where("name_key = ? AND id <> ?", model.CommitteeKey(name), exceptID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check committee name: %w", err)
	}
	if n > 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *CommitteeService) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}
