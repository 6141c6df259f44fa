package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"decom/internal/logger"
	"decom/internal/model"
	"decom/internal/permission"

	"gorm.io/gorm"
)

type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("role_level DESC, full_name").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// Create provisions a user together with its login identity (email + password hash).
func (s *UserService) Create(ctx context.Context, p model.CreateUserPayload, actor Actor) (*model.User, error) {
	if !permission.CanManage(actor.Role, p.Role) {
		return nil, ErrForbidden
	}
	return s.create(ctx, p)
}

func (s *UserService) create(ctx context.Context, p model.CreateUserPayload) (*model.User, error) {
	email := normalizeEmail(p.Email)
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return nil, ErrDuplicate
	}

	hash, err := hashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	u := model.User{
		Email:        email,
		FullName:     strings.TrimSpace(p.FullName),
		PasswordHash: hash,
		Role:         p.Role,
		RoleLevel:    permission.LevelOf(p.Role),
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, dbErr("insert user", err)
	}
	logger.Info("user.created", "id", u.ID, "role", u.Role)
	return &u, nil
}

func (s *UserService) Update(ctx context.Context, id uint, p model.UpdateUserPayload, actor Actor) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	self := u.ID == actor.ID
	if self {
		if p.Role != nil || p.Active != nil {
			return nil, ErrForbidden
		}
	} else if !permission.CanManage(actor.Role, u.Role) {
		return nil, ErrForbidden
	}
	if self && p.Password != nil {
		if p.CurrentPassword == nil || !passwordMatches(u.PasswordHash, *p.CurrentPassword) {
			logger.Warn("user.password_change_denied", "id", u.ID)
			return nil, &FieldError{Field: "current_password", Message: "la contraseña actual no es correcta"}
		}
	}

	updates := map[string]any{}
	if p.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*p.FullName)
	}
	if p.Role != nil {
		if !permission.CanManage(actor.Role, *p.Role) {
			return nil, ErrForbidden
		}
		updates["role"] = *p.Role
		updates["role_level"] = permission.LevelOf(*p.Role)
	}
	if p.Active != nil {
		updates["active"] = *p.Active
	}
	if p.Password != nil {
		hash, err := hashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	logger.Info("user.updated", "id", u.ID, "actor", actor.ID)
	return s.Get(ctx, id)
}

// Deactivate soft-disables an account; users are never deleted.
func (s *UserService) Deactivate(ctx context.Context, id uint, actor Actor) error {
	if id == actor.ID {
		return ErrSelfDeactivate
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !permission.CanManage(actor.Role, u.Role) {
		return ErrForbidden
	}
	if err := s.db.WithContext(ctx).Model(u).Update("active", false).Error; err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	logger.Info("user.deactivated", "id", id, "actor", actor.ID)
	return nil
}

// EnsureBootstrapAdmin creates the first super admin when the users table is empty.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err := s.create(ctx, model.CreateUserPayload{
		Email:    email,
		FullName: name,
		Role:     string(permission.RoleSuperAdmin),
		Password: password,
	})
	return err
}
