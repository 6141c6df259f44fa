package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCommitteeNotFound  = errors.New("committee not found")
	ErrCommitteeInUse     = errors.New("committee has requests")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfDeactivate     = errors.New("cannot deactivate yourself")
	ErrDuplicate          = errors.New("already exists")
)

// FieldError is a rule on one field that can only be checked against the
// stored row, such as a partial update leaving the request inconsistent.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Name string
	Role string
}

// dbErr maps unique-index violations to ErrDuplicate and wraps everything else.
func dbErr(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
